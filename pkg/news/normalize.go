package news

// Normalize converts a provider record into the canonical Article.
// It is pure and idempotent, and tolerates records with missing fields;
// callers decide whether to drop records that are not Valid.
func Normalize(raw RawArticle) Article {
	a := Article{
		ID:          raw.ArticleID,
		Title:       raw.Title,
		Description: raw.Description,
		URL:         raw.Link,
		SourceName:  sourceName(raw),
		PublishedAt: raw.PubDate,
		ImageURL:    raw.ImageURL,
		Category:    firstNonEmpty(raw.Category),
		Keywords:    cloneList(raw.Keywords),
		Creators:    cloneList(raw.Creator),
	}
	return a
}

// NormalizeAll normalizes every valid record in order and drops the rest.
// The second return value counts the dropped records.
func NormalizeAll(raws []RawArticle) ([]Article, int) {
	out := make([]Article, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		if !raw.Valid() {
			skipped++
			continue
		}
		out = append(out, Normalize(raw))
	}
	return out, skipped
}

// Dedupe keeps the first article for every ID, preserving order.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0:0]
	for _, a := range articles {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

func sourceName(raw RawArticle) string {
	switch {
	case raw.SourceName != "":
		return raw.SourceName
	case raw.SourceID != "":
		return raw.SourceID
	default:
		return UnknownSource
	}
}

func firstNonEmpty(list StringList) string {
	for _, s := range list {
		if s != "" {
			return s
		}
	}
	return ""
}

func cloneList(list StringList) []string {
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
