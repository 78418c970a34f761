package cache

import (
	"fmt"
	"strings"
)

// Layout identifies one physical representation of the article collection.
type Layout string

const (
	// LayoutEnvelope is a single string key holding a provider response envelope.
	LayoutEnvelope Layout = "envelope"

	// LayoutSortedIndex is a sorted set of records scored by publish time.
	LayoutSortedIndex Layout = "sorted_index"

	// LayoutList is a list of record or envelope JSON values.
	LayoutList Layout = "list"

	// LayoutFanout is many keys sharing a prefix, one record or envelope each.
	LayoutFanout Layout = "fanout"
)

// Keys names the Redis keys of every layout.
type Keys struct {
	// Envelope is read by the envelope probe.
	Envelope string

	// SortedIndex is rebuilt on every store and read by the sorted index probe.
	SortedIndex string

	// List is read by the list probe.
	List string

	// FanoutPrefix is the shared prefix of fan-out keys (e.g. "news:").
	FanoutPrefix string

	// Primary is the envelope key written when the caller passes none.
	Primary string
}

// DefaultKeys returns the key names used by the production deployment.
func DefaultKeys() Keys {
	return Keys{
		Envelope:     "newsdata:technology:latest200",
		SortedIndex:  "tech_news:sorted",
		List:         "tech_news:list",
		FanoutPrefix: "news:",
		Primary:      "tech_news",
	}
}

// FanoutPattern returns the SCAN MATCH pattern for fan-out keys.
//
// Example:
//
//	news:*
func (k Keys) FanoutPattern() string {
	return k.FanoutPrefix + "*"
}

// FanoutKey returns the fan-out key for one article id.
func (k Keys) FanoutKey(id string) string {
	return k.FanoutPrefix + id
}

// Validate checks that every key is set and that the fan-out pattern cannot
// match the other layouts' keys.
func (k Keys) Validate() error {
	named := []struct{ name, value string }{
		{"envelope", k.Envelope},
		{"sorted index", k.SortedIndex},
		{"list", k.List},
		{"fan-out prefix", k.FanoutPrefix},
		{"primary", k.Primary},
	}
	for _, n := range named {
		if strings.TrimSpace(n.value) == "" {
			return fmt.Errorf("%s key is empty", n.name)
		}
	}

	for _, other := range []string{k.Envelope, k.SortedIndex, k.List} {
		if strings.HasPrefix(other, k.FanoutPrefix) {
			return fmt.Errorf("key %q collides with fan-out prefix %q", other, k.FanoutPrefix)
		}
	}
	return nil
}
