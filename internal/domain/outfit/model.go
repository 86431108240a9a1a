package outfit

import (
	"strings"
	"time"
)

// Images holds the rendition URLs stored alongside a document.
type Images struct {
	Full      string `json:"full,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Document is a tagged outfit image in a named collection.
type Document struct {
	ID             string    `json:"id"`
	Collection     string    `json:"collection"`
	Filename       string    `json:"filename"`
	Tags           []string  `json:"tags"`
	Images         Images    `json:"images"`
	LegacyImage    string    `json:"image,omitempty"`
	SourceURL      string    `json:"sourceUrl,omitempty"`
	SearchFilename string    `json:"searchFilename,omitempty"`
	IsAI           bool      `json:"isAi"`
	UserID         string    `json:"userId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ResolveURL returns the display URL for the document. Candidates are tried in
// order: full image, thumbnail, legacy image field, then a public URL
// synthesized from the filename. Documents without a filename never resolve.
func (d Document) ResolveURL(publicBase string) string {
	if strings.TrimSpace(d.Filename) == "" {
		return ""
	}
	for _, candidate := range []string{d.Images.Full, d.Images.Thumbnail, d.LegacyImage} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return PublicURL(publicBase, d.Filename)
}

// NormalizedTagSet lowercases and trims the document tags into a set.
func (d Document) NormalizedTagSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Tags))
	for _, tag := range d.Tags {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		set[clean] = struct{}{}
	}
	return set
}

// PublicURL joins the public bucket base with an escaped object name.
// An empty base yields an empty URL.
func PublicURL(base, filename string) string {
	if strings.TrimSpace(base) == "" || strings.TrimSpace(filename) == "" {
		return ""
	}
	return base + escapeObjectName(filename)
}

const upperhex = "0123456789ABCDEF"

// escapeObjectName percent-encodes every UTF-8 byte outside
// [A-Za-z0-9-_.~], including '/'.
func escapeObjectName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUnreservedByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreservedByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
