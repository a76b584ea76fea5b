package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gotd/td/session"
	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"go.uber.org/ratelimit"

	"tgmirror/internal/config"
	"tgmirror/internal/retry"
)

// requestsPerSecond paces every MTProto call. Staying well under the
// server-side ceiling avoids most flood waits in the first place.
const requestsPerSecond = 5

// Client implements the remote channel contract over an MTProto connection.
// It is only valid inside the callback passed to Run, and must be Resolved
// before any history or download call.
type Client struct {
	api       *tg.Client
	channel   string
	limiter   ratelimit.Limiter
	retryOpts retry.Options
	logger    *slog.Logger

	peer     *tg.InputPeerChannel
	title    string
	username string
	photoID  int64
}

// Run connects using the exported Telethon string session and invokes fn
// with a live client. The connection closes when fn returns.
func Run(ctx context.Context, cfg config.Telegram, retryOpts retry.Options, logger *slog.Logger, fn func(ctx context.Context, client *Client) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := session.TelethonSession(cfg.Session)
	if err != nil {
		return fmt.Errorf("parse session string: %w", err)
	}
	storage := new(session.StorageMemory)
	loader := session.Loader{Storage: storage}
	if err := loader.Save(ctx, data); err != nil {
		return fmt.Errorf("prime session storage: %w", err)
	}

	client := tgclient.NewClient(cfg.APIID, cfg.APIHash, tgclient.Options{
		SessionStorage: storage,
	})
	return client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return errors.New("session is not authorized, export a fresh one")
		}
		return fn(ctx, &Client{
			api:       client.API(),
			channel:   cfg.Channel,
			limiter:   ratelimit.New(requestsPerSecond),
			retryOpts: retryOpts,
			logger:    logger.With("component", "telegram"),
		})
	})
}

// classify maps MTProto errors onto the pipeline's retry taxonomy: flood
// waits carry the server-mandated wait, everything else coming back from the
// wire counts as transient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if wait, ok := tgerr.AsFloodWait(err); ok {
		return &retry.RateLimitedError{Wait: wait}
	}
	return retry.Transient(err)
}
