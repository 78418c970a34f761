// Package news defines the provider record shapes stored in the cache and
// the canonical Article consumed by the content site.
package news

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StatusSuccess is the envelope status written by the ingestion path and
// required by the envelope read path.
const StatusSuccess = "success"

// UnknownSource is used when a record carries neither a source name nor a source id.
const UnknownSource = "Unknown"

// Article is the canonical, cache-agnostic news article.
// Empty optional fields mean "absent" and are omitted from JSON.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	SourceName  string   `json:"sourceName"`
	PublishedAt string   `json:"publishedAt"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Category    string   `json:"category,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Creators    []string `json:"creators,omitempty"`
}

// RawArticle is one record as delivered by the upstream news provider.
// Every field is optional at decode time; see Valid for the fields the
// read path insists on.
type RawArticle struct {
	ArticleID      string     `json:"article_id"`
	Link           string     `json:"link"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Content        string     `json:"content,omitempty"`
	Keywords       StringList `json:"keywords,omitempty"`
	Creator        StringList `json:"creator,omitempty"`
	Language       string     `json:"language,omitempty"`
	Country        StringList `json:"country,omitempty"`
	Category       StringList `json:"category,omitempty"`
	Datatype       string     `json:"datatype,omitempty"`
	PubDate        string     `json:"pubDate"`
	PubDateTZ      string     `json:"pubDateTZ,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	VideoURL       string     `json:"video_url,omitempty"`
	SourceID       string     `json:"source_id,omitempty"`
	SourceName     string     `json:"source_name,omitempty"`
	SourcePriority int64      `json:"source_priority,omitempty"`
	SourceURL      string     `json:"source_url,omitempty"`
	SourceIcon     string     `json:"source_icon,omitempty"`
	Sentiment      string     `json:"sentiment,omitempty"`
	AITag          string     `json:"ai_tag,omitempty"`
	AIRegion       string     `json:"ai_region,omitempty"`
	AIOrg          string     `json:"ai_org,omitempty"`
	AISummary      string     `json:"ai_summary,omitempty"`
	Duplicate      bool       `json:"duplicate,omitempty"`
}

// Valid reports whether the record carries the identifier and link
// required to become an Article.
func (r RawArticle) Valid() bool {
	return r.ArticleID != "" && r.Link != ""
}

// Envelope wraps a batch of provider records with response metadata.
type Envelope struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Results      []RawArticle `json:"results"`
	NextPage     *string      `json:"nextPage"`
}

// NewEnvelope wraps batch the way the ingestion path stores it.
func NewEnvelope(batch []RawArticle) Envelope {
	if batch == nil {
		batch = []RawArticle{}
	}
	return Envelope{
		Status:       StatusSuccess,
		TotalResults: len(batch),
		Results:      batch,
		NextPage:     nil,
	}
}

// StringList decodes a provider field that is usually a JSON array of
// strings but is sometimes a bare string or null.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	case '[':
		var items []*string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if item != nil {
				out = append(out, *item)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("string list: unexpected JSON %q", data)
	}
}
