package outfit

import (
	"sort"
	"strings"
)

// DefaultTags is used when a caller supplies no preference terms.
var DefaultTags = []string{"casual", "womenswear"}

var synonyms = map[string][]string{
	"dress":  {"gown", "cocktail dress", "evening wear"},
	"red":    {"scarlet", "crimson", "burgundy"},
	"jacket": {"blazer", "coat", "cardigan"},
	"shirt":  {"top", "blouse", "tee"},
	"pants":  {"trousers", "slacks", "leggings"},
	"shoes":  {"sneakers", "heels", "boots"},
}

// NormalizeTags flattens the groups into trimmed, lowercased, de-duplicated
// terms in first-seen order.
func NormalizeTags(groups ...[]string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, raw := range group {
			clean := strings.ToLower(strings.TrimSpace(raw))
			if clean == "" {
				continue
			}
			if _, ok := seen[clean]; ok {
				continue
			}
			seen[clean] = struct{}{}
			out = append(out, clean)
		}
	}
	return out
}

// ExpandTags adds fashion synonyms to the tags. The result is only meant for
// candidate discovery and must never be used to admit a document.
func ExpandTags(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		set[clean] = struct{}{}
		for _, syn := range synonyms[clean] {
			set[syn] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// ContainsAll reports whether every required tag is present in the set.
func ContainsAll(set map[string]struct{}, required []string) bool {
	for _, tag := range required {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}
