package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// DownloadMedia fetches the media payload of a message to dest. The message
// is re-fetched first so the file reference is fresh.
func (c *Client) DownloadMedia(ctx context.Context, id int64, dest string) error {
	msg, err := c.message(ctx, id)
	if err != nil {
		return err
	}
	if msg == nil {
		return fmt.Errorf("message %d is gone", id)
	}
	loc, err := fileLocation(msg)
	if err != nil {
		return err
	}
	c.limiter.Take()
	if _, err := downloader.NewDownloader().Download(c.api, loc).ToPath(ctx, dest); err != nil {
		return classify(err)
	}
	return nil
}

// DownloadAvatar fetches the channel photo to dest, reporting false when the
// channel has none.
func (c *Client) DownloadAvatar(ctx context.Context, dest string) (bool, error) {
	if c.peer == nil {
		return false, errNotResolved
	}
	if c.photoID == 0 {
		return false, nil
	}
	loc := &tg.InputPeerPhotoFileLocation{
		Peer:    c.peer,
		PhotoID: c.photoID,
		Big:     true,
	}
	c.limiter.Take()
	if _, err := downloader.NewDownloader().Download(c.api, loc).ToPath(ctx, dest); err != nil {
		return false, classify(err)
	}
	return true, nil
}

func fileLocation(msg *tg.Message) (tg.InputFileLocationClass, error) {
	media, ok := msg.GetMedia()
	if !ok {
		return nil, errors.New("message has no media")
	}
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := photoOf(m)
		if !ok {
			return nil, errors.New("photo unavailable")
		}
		sizeType, _ := largestPhotoSize(photo.Sizes)
		return &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     sizeType,
		}, nil
	case *tg.MessageMediaDocument:
		doc, ok := documentOf(m)
		if !ok {
			return nil, errors.New("document unavailable")
		}
		return &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}, nil
	default:
		return nil, fmt.Errorf("no downloadable file in %T", media)
	}
}
