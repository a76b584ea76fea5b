package site

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"tgmirror/internal/config"
	"tgmirror/internal/models"
	"tgmirror/internal/storage"
)

const (
	staticPageSize    = 30
	jsonPageSize      = 500
	feedItemsLimit    = 50
	sitemapItemsLimit = 1000
)

// RuntimeConfig is the frontend configuration published as data/config.json.
type RuntimeConfig struct {
	PageSize      int    `json:"page_size"`
	JSONPageSize  int    `json:"json_page_size"`
	PagesCount    int    `json:"pages_count"`
	SiteURL       string `json:"site_url,omitempty"`
	AnalyticsID   string `json:"analytics_id,omitempty"`
	SubscribeLink string `json:"channel_specific_link,omitempty"`
	PromoText     string `json:"promo_text,omitempty"`
}

// Generator writes the static-site side outputs: paginated JSON chunks,
// runtime config, feeds, sitemap and robots.txt.
type Generator struct {
	store  *storage.Store
	cfg    config.Sync
	logger *slog.Logger
}

func NewGenerator(store *storage.Store, cfg config.Sync, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{store: store, cfg: cfg, logger: logger.With("component", "site")}
}

// Generate publishes every site output from the reconciled records. Feed and
// sitemap problems are logged and skipped; page and config write failures
// propagate.
func (g *Generator) Generate(meta models.Meta, postsByID map[int64]models.Post) error {
	baseURL := BaseURL(meta, g.cfg.SiteURL)
	postsDesc := sortedByDateDesc(postsByID)

	if _, err := g.store.WritePostPages(postsDesc, jsonPageSize); err != nil {
		return fmt.Errorf("write post pages: %w", err)
	}

	pagesCount := 0
	if len(postsDesc) > 0 {
		pagesCount = (len(postsDesc) + jsonPageSize - 1) / jsonPageSize
	}
	rc := RuntimeConfig{
		PageSize:      staticPageSize,
		JSONPageSize:  jsonPageSize,
		PagesCount:    pagesCount,
		SiteURL:       baseURL,
		AnalyticsID:   g.cfg.AnalyticsID,
		SubscribeLink: g.cfg.SubscribeLink,
		PromoText:     g.cfg.PromoText,
	}
	if _, err := g.store.WriteSiteConfig(rc); err != nil {
		return fmt.Errorf("write site config: %w", err)
	}

	if err := g.writeFeeds(meta, postsDesc, baseURL); err != nil {
		g.logger.Warn("failed to generate feeds", "error", err)
	}
	if err := g.writeSitemap(meta, postsDesc, baseURL); err != nil {
		g.logger.Warn("failed to generate sitemap", "error", err)
	}
	if _, err := g.store.WriteDocFile("robots.txt", robotsTxt(baseURL, g.cfg.AllowIndexing)); err != nil {
		g.logger.Warn("failed to write robots.txt", "error", err)
	}
	return nil
}

// BaseURL resolves the site base: the configured URL wins, then an inferred
// GitHub Pages URL, then the public channel link.
func BaseURL(meta models.Meta, siteURL string) string {
	if siteURL != "" {
		return config.NormalizeSiteURL(siteURL)
	}
	if inferred := config.InferGitHubPagesURL(); inferred != "" {
		return inferred
	}
	username := meta.Username
	if username == "" {
		username = meta.Channel
	}
	return "https://t.me/" + username + "/"
}

var tgEmojiTag = regexp.MustCompile(`</?tg-emoji[^>]*>`)

// stripTgEmoji removes the custom emoji wrapper tags, which feed readers
// cannot render.
func stripTgEmoji(html string) string {
	return tgEmojiTag.ReplaceAllString(html, "")
}

// postTitle derives a feed title: the first line of the text capped at 120
// characters, or a numbered fallback.
func postTitle(p models.Post) string {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return fmt.Sprintf("Post #%d", p.ID)
	}
	line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
	runes := []rune(line)
	if len(runes) > 120 {
		return string(runes[:120])
	}
	return line
}

func postLink(p models.Post, baseURL string) string {
	if p.Link != "" {
		return p.Link
	}
	return joinURL(baseURL, fmt.Sprintf("post.html?id=%d", p.ID))
}

func postDescription(p models.Post) string {
	if p.HTML != "" {
		return stripTgEmoji(p.HTML)
	}
	return p.Text
}

// joinURL resolves ref against base, tolerating malformed input by simple
// concatenation.
func joinURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + ref
	}
	return b.ResolveReference(r).String()
}

func sortedByDateDesc(postsByID map[int64]models.Post) []models.Post {
	out := make([]models.Post, 0, len(postsByID))
	for _, p := range postsByID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DateTime(), out[j].DateTime()
		if di.Equal(dj) {
			return out[i].ID > out[j].ID
		}
		return di.After(dj)
	})
	return out
}
