package posts

import (
	"fmt"
	"html"
	"net/url"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"

	"tgmirror/internal/models"
)

// safeSchemes is the allow-list for anchor hrefs. Everything else is
// stripped, keeping only relative and fragment references.
var safeSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tg":     true,
	"tel":    true,
}

// linkRel is forced onto every anchor regardless of its original value.
const linkRel = "noopener noreferrer nofollow"

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "u", "del", "code", "pre", "br", "blockquote", "tg-spoiler", "tg-emoji")
	p.AllowAttrs("href", "rel").OnElements("a")
	p.AllowAttrs("class").OnElements("code")
	p.AllowAttrs("emoji-id").OnElements("tg-emoji")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "tg", "tel")
	p.RequireNoFollowOnLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// isSafeHref reports whether an href may be kept on an anchor: relative and
// fragment references are fine, protocol-relative URLs are not, and absolute
// URLs must use an allow-listed scheme.
func isSafeHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}
	if strings.HasPrefix(href, "//") {
		return false
	}
	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "./") || strings.HasPrefix(href, "../") {
		return true
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}
	return safeSchemes[strings.ToLower(parsed.Scheme)]
}

type tagPair struct {
	open  string
	close string
}

// entityTags maps one formatting entity onto its open/close markup. The
// covered text is needed for entities whose target is the text itself
// (bare URLs, emails, mentions, phone numbers). ok is false for entity
// kinds rendered as plain text.
func entityTags(e models.Entity, covered string) (tagPair, bool) {
	anchor := func(href string) (tagPair, bool) {
		if !isSafeHref(href) {
			return tagPair{open: fmt.Sprintf(`<a rel=%q>`, linkRel), close: "</a>"}, true
		}
		return tagPair{
			open:  fmt.Sprintf(`<a href=%q rel=%q>`, href, linkRel),
			close: "</a>",
		}, true
	}

	switch e.Type {
	case models.EntityBold:
		return tagPair{"<strong>", "</strong>"}, true
	case models.EntityItalic:
		return tagPair{"<em>", "</em>"}, true
	case models.EntityUnderline:
		return tagPair{"<u>", "</u>"}, true
	case models.EntityStrike:
		return tagPair{"<del>", "</del>"}, true
	case models.EntityCode:
		return tagPair{"<code>", "</code>"}, true
	case models.EntityPre:
		if e.Language != "" {
			return tagPair{fmt.Sprintf(`<pre><code class=%q>`, "language-"+e.Language), "</code></pre>"}, true
		}
		return tagPair{"<pre>", "</pre>"}, true
	case models.EntityBlockquote:
		return tagPair{"<blockquote>", "</blockquote>"}, true
	case models.EntitySpoiler:
		return tagPair{"<tg-spoiler>", "</tg-spoiler>"}, true
	case models.EntityCustomEmoji:
		return tagPair{fmt.Sprintf(`<tg-emoji emoji-id="%d">`, e.EmojiID), "</tg-emoji>"}, true
	case models.EntityTextURL:
		return anchor(e.URL)
	case models.EntityURL:
		return anchor(covered)
	case models.EntityEmail:
		return anchor("mailto:" + covered)
	case models.EntityPhone:
		return anchor("tel:" + covered)
	case models.EntityMention:
		return anchor("https://t.me/" + strings.TrimPrefix(covered, "@"))
	default:
		return tagPair{}, false
	}
}

// renderHTML converts message text plus formatting entities into sanitized
// markup. Entity offsets are UTF-16 code units. The error return exists so
// the normalizer can degrade to an empty body instead of emitting broken
// markup.
func renderHTML(text string, entities []models.Entity) (string, error) {
	if text == "" {
		return "", nil
	}
	units := utf16.Encode([]rune(text))

	type span struct {
		start, end int
		pair       tagPair
	}
	spans := make([]span, 0, len(entities))
	for _, e := range entities {
		if e.Offset < 0 || e.Length <= 0 {
			return "", fmt.Errorf("entity with invalid bounds: offset=%d length=%d", e.Offset, e.Length)
		}
		end := e.Offset + e.Length
		if end > len(units) {
			return "", fmt.Errorf("entity out of range: end=%d text=%d", end, len(units))
		}
		covered := string(utf16.Decode(units[e.Offset:end]))
		pair, ok := entityTags(e, covered)
		if !ok {
			continue
		}
		spans = append(spans, span{start: e.Offset, end: end, pair: pair})
	}

	// Outer spans open first so nesting comes out well-formed; overlapping
	// (non-nested) entities are not produced by the remote source.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	opens := make(map[int][]tagPair)
	closes := make(map[int][]tagPair)
	boundaries := map[int]bool{0: true, len(units): true}
	for _, s := range spans {
		opens[s.start] = append(opens[s.start], s.pair)
		closes[s.end] = append(closes[s.end], s.pair)
		boundaries[s.start] = true
		boundaries[s.end] = true
	}
	positions := make([]int, 0, len(boundaries))
	for pos := range boundaries {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	// Segments are decoded whole so surrogate pairs survive; tags only ever
	// land on entity boundaries.
	var b strings.Builder
	for i, pos := range positions {
		// Close tags in reverse of their opening order.
		if pairs := closes[pos]; len(pairs) > 0 {
			for j := len(pairs) - 1; j >= 0; j-- {
				b.WriteString(pairs[j].close)
			}
		}
		for _, pair := range opens[pos] {
			b.WriteString(pair.open)
		}
		if i+1 < len(positions) {
			segment := string(utf16.Decode(units[pos:positions[i+1]]))
			b.WriteString(html.EscapeString(segment))
		}
	}

	rendered := strings.ReplaceAll(b.String(), "\n", "<br>")
	return sanitizer.Sanitize(rendered), nil
}
