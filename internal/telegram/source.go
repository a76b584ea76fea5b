package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gotd/td/tg"

	"tgmirror/internal/models"
	"tgmirror/internal/retry"
)

const historyPageSize = 100

var errNotResolved = errors.New("channel not resolved")

// Resolve looks up the configured channel username and caches the access
// peer used by every subsequent call.
func (c *Client) Resolve(ctx context.Context) (models.ChannelInfo, error) {
	c.limiter.Take()
	resolved, err := c.api.ContactsResolveUsername(ctx, c.channel)
	if err != nil {
		return models.ChannelInfo{}, classify(err)
	}
	for _, chat := range resolved.Chats {
		channel, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}
		hash, _ := channel.GetAccessHash()
		c.peer = &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: hash}
		c.title = channel.Title
		c.username, _ = channel.GetUsername()
		if photo, ok := channel.Photo.(*tg.ChatPhoto); ok {
			c.photoID = photo.PhotoID
		}
		return models.ChannelInfo{
			Title:    c.title,
			Username: c.username,
			HasPhoto: c.photoID != 0,
		}, nil
	}
	return models.ChannelInfo{}, fmt.Errorf("%q did not resolve to a channel", c.channel)
}

// ForEachAfter streams messages with id strictly greater than afterID in
// ascending order, retrying individual page fetches.
func (c *Client) ForEachAfter(ctx context.Context, afterID int64, fn func(models.RawMessage) error) error {
	if c.peer == nil {
		return errNotResolved
	}
	offsetID := int(afterID)
	for {
		page, err := retry.Do(ctx, c.logger, c.retryOpts, func() ([]*tg.Message, error) {
			return c.historyPage(ctx, &tg.MessagesGetHistoryRequest{
				Peer:      c.peer,
				OffsetID:  offsetID,
				AddOffset: -historyPageSize,
				Limit:     historyPageSize,
				MinID:     int(afterID),
			})
		})
		if err != nil {
			return err
		}

		// Replay ascending. The offset message itself can come back on some
		// layers and must be dropped.
		sort.Slice(page, func(i, j int) bool { return page[i].ID < page[j].ID })
		advanced := false
		for _, msg := range page {
			if msg.ID <= offsetID {
				continue
			}
			advanced = true
			if err := fn(convertMessage(msg)); err != nil {
				return err
			}
			offsetID = msg.ID
		}
		if !advanced {
			return nil
		}
	}
}

// Recent returns up to limit of the newest messages, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]models.RawMessage, error) {
	if c.peer == nil {
		return nil, errNotResolved
	}
	out := make([]models.RawMessage, 0, limit)
	offsetID := 0
	for len(out) < limit {
		pageLimit := min(historyPageSize, limit-len(out))
		page, err := c.historyPage(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     c.peer,
			OffsetID: offsetID,
			Limit:    pageLimit,
		})
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		sort.Slice(page, func(i, j int) bool { return page[i].ID > page[j].ID })
		for _, msg := range page {
			out = append(out, convertMessage(msg))
			offsetID = msg.ID
		}
		if len(page) < pageLimit {
			break
		}
	}
	return out, nil
}

// Message fetches a single message by id, returning nil when it no longer
// exists.
func (c *Client) Message(ctx context.Context, id int64) (*models.RawMessage, error) {
	msg, err := c.message(ctx, id)
	if err != nil || msg == nil {
		return nil, err
	}
	raw := convertMessage(msg)
	return &raw, nil
}

func (c *Client) message(ctx context.Context, id int64) (*tg.Message, error) {
	if c.peer == nil {
		return nil, errNotResolved
	}
	c.limiter.Take()
	res, err := c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: c.peer.ChannelID, AccessHash: c.peer.AccessHash},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: int(id)}},
	})
	if err != nil {
		return nil, classify(err)
	}
	msgs, err := extractMessages(res)
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if int64(msg.ID) == id {
			return msg, nil
		}
	}
	return nil, nil
}

func (c *Client) historyPage(ctx context.Context, req *tg.MessagesGetHistoryRequest) ([]*tg.Message, error) {
	c.limiter.Take()
	res, err := c.api.MessagesGetHistory(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	return extractMessages(res)
}

func extractMessages(res tg.MessagesMessagesClass) ([]*tg.Message, error) {
	var list []tg.MessageClass
	switch v := res.(type) {
	case *tg.MessagesChannelMessages:
		list = v.Messages
	case *tg.MessagesMessages:
		list = v.Messages
	case *tg.MessagesMessagesSlice:
		list = v.Messages
	default:
		return nil, fmt.Errorf("unexpected messages response %T", res)
	}
	msgs := make([]*tg.Message, 0, len(list))
	for _, m := range list {
		if msg, ok := m.(*tg.Message); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}
