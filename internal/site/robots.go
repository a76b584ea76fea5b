package site

import "strings"

// robotsTxt renders robots.txt. With indexing disabled the whole site is
// closed to crawlers.
func robotsTxt(baseURL string, allowIndexing bool) []byte {
	if !allowIndexing {
		return []byte(strings.Join([]string{
			"# Robots file is auto-generated; set SEO=true to allow crawling.",
			"User-agent: *",
			"Disallow: /",
			"",
		}, "\n"))
	}
	return []byte(strings.Join([]string{
		"# Robots file is auto-generated; base URL is inferred from GitHub Pages when available.",
		"User-agent: *",
		"Allow: /",
		"Allow: /static/",
		"",
		"Sitemap: " + joinURL(baseURL, "sitemap.xml"),
		"Sitemap: " + joinURL(baseURL, "feed.xml"),
		"Sitemap: " + joinURL(baseURL, "atom.xml"),
		"",
	}, "\n"))
}
