package site

import (
	"fmt"
	"time"

	"github.com/gorilla/feeds"

	"tgmirror/internal/models"
)

// writeFeeds publishes feed.xml (RSS 2.0) and atom.xml over the newest
// posts. An empty channel produces no feed files.
func (g *Generator) writeFeeds(meta models.Meta, postsDesc []models.Post, baseURL string) error {
	items := postsDesc
	if len(items) > feedItemsLimit {
		items = items[:feedItemsLimit]
	}
	if len(items) == 0 {
		return nil
	}

	title := meta.Title
	if title == "" {
		title = "Telegram — " + meta.Channel
	}
	updated := feedUpdated(meta, items)

	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: baseURL},
		Description: fmt.Sprintf("Mirror of the %s Telegram channel", meta.Channel),
		Author:      &feeds.Author{Name: title},
		Updated:     updated,
	}
	for _, p := range items {
		link := postLink(p, baseURL)
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       postTitle(p),
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: postDescription(p),
			Content:     postDescription(p),
			Created:     p.DateTime(),
			Updated:     p.LastModified(),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("render rss: %w", err)
	}
	if _, err := g.store.WriteDocFile("feed.xml", []byte(rss)); err != nil {
		return err
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return fmt.Errorf("render atom: %w", err)
	}
	_, err = g.store.WriteDocFile("atom.xml", []byte(atom))
	return err
}

func feedUpdated(meta models.Meta, items []models.Post) time.Time {
	if meta.LastSyncUTC != "" {
		if t, err := time.Parse(time.RFC3339, meta.LastSyncUTC); err == nil {
			return t
		}
	}
	if len(items) > 0 {
		return items[0].DateTime()
	}
	return time.Now().UTC()
}
