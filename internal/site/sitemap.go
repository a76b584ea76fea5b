package site

import (
	"encoding/xml"
	"fmt"
	"time"

	"tgmirror/internal/models"
)

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// writeSitemap publishes sitemap.xml: the site root, the feeds, the static
// index pages and the newest posts, each with a last-modified stamp when
// known.
func (g *Generator) writeSitemap(meta models.Meta, postsDesc []models.Post, baseURL string) error {
	items := postsDesc
	if len(items) > sitemapItemsLimit {
		items = items[:sitemapItemsLimit]
	}

	lastSync := ""
	if meta.LastSyncUTC != "" {
		if t, err := time.Parse(time.RFC3339, meta.LastSyncUTC); err == nil {
			lastSync = t.Format(time.RFC3339)
		}
	}

	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	add := func(loc, lastmod string) {
		if loc == "" {
			return
		}
		set.URLs = append(set.URLs, sitemapURL{Loc: loc, LastMod: lastmod})
	}

	add(baseURL, lastSync)
	add(joinURL(baseURL, "feed.xml"), lastSync)
	add(joinURL(baseURL, "atom.xml"), lastSync)

	totalPages := 1
	if len(items) > 0 {
		totalPages = (len(items) + staticPageSize - 1) / staticPageSize
	}
	for page := 1; page <= totalPages; page++ {
		path := "static/"
		if page > 1 {
			path = fmt.Sprintf("static/page-%d.html", page)
		}
		add(joinURL(baseURL, path), lastSync)
	}

	for _, p := range items {
		lastmod := p.LastModified().Format(time.RFC3339)
		add(joinURL(baseURL, fmt.Sprintf("post.html?id=%d", p.ID)), lastmod)
		add(joinURL(baseURL, fmt.Sprintf("static/posts/%d.html", p.ID)), lastmod)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("render sitemap: %w", err)
	}
	payload := append([]byte(xml.Header), body...)
	payload = append(payload, '\n')
	_, err = g.store.WriteDocFile("sitemap.xml", payload)
	return err
}
