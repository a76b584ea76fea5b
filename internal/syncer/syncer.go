package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"tgmirror/internal/config"
	"tgmirror/internal/media"
	"tgmirror/internal/models"
	"tgmirror/internal/posts"
	"tgmirror/internal/retry"
	"tgmirror/internal/storage"
)

// Source is the remote channel contract the orchestrator consumes. Streaming
// calls retry individual page fetches internally; single-shot calls
// (Resolve, Recent, Message) are retried by the caller.
type Source interface {
	media.Source
	// Resolve looks up the configured channel and returns its metadata.
	Resolve(ctx context.Context) (models.ChannelInfo, error)
	// ForEachAfter streams messages with id strictly greater than afterID in
	// ascending order. afterID 0 streams the whole history.
	ForEachAfter(ctx context.Context, afterID int64, fn func(models.RawMessage) error) error
	// Recent returns up to limit of the newest messages, newest first.
	Recent(ctx context.Context, limit int) ([]models.RawMessage, error)
}

// Result is the outcome of one reconciliation run. Changed gates downstream
// site generation.
type Result struct {
	New             int
	Updated         int
	MediaDownloaded int
	PostsCount      int
	Watermark       int64
	Changed         bool

	Posts map[int64]models.Post
	Meta  models.Meta
}

// Syncer reconciles the remote channel against the local record store.
type Syncer struct {
	source    Source
	store     *storage.Store
	fetcher   *media.Fetcher
	cfg       config.Sync
	channel   string
	retryOpts retry.Options
	logger    *slog.Logger
	now       func() time.Time
}

func New(source Source, store *storage.Store, fetcher *media.Fetcher, cfg config.Sync, channel string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	opts := retry.DefaultOptions()
	if cfg.MaxRetries > 0 {
		opts.Retries = cfg.MaxRetries
	}
	if cfg.Backoff > 0 {
		opts.Backoff = cfg.Backoff
	}
	return &Syncer{
		source:    source,
		store:     store,
		fetcher:   fetcher,
		cfg:       cfg,
		channel:   channel,
		retryOpts: opts,
		logger:    logger.With("component", "syncer"),
		now:       time.Now,
	}
}

// runState accumulates one run's reconciliation outcome. It is owned by a
// single Run invocation and never shared.
type runState struct {
	posts    map[int64]models.Post
	maxSeen  int64
	newCount int
	updated  int
}

func (st *runState) observe(id int64) {
	if id > st.maxSeen {
		st.maxSeen = id
	}
}

// apply upserts one freshly normalized message. New ids are inserted; known
// ids are overwritten only on a material difference, carrying over the stored
// media list (and its status) when the fresh record has none so that edits do
// not erase previously downloaded attachments.
func (st *runState) apply(raw models.RawMessage, username string) {
	st.observe(raw.ID)
	fresh := posts.FromRaw(raw, username)

	old, ok := st.posts[raw.ID]
	if !ok {
		st.posts[raw.ID] = fresh
		st.newCount++
		return
	}
	if !posts.Changed(old, fresh) {
		return
	}
	if len(fresh.Media) == 0 {
		fresh.Media = old.Media
		fresh.MediaStatus = old.MediaStatus
	}
	st.posts[raw.ID] = fresh
	st.updated++
}

// Run executes one full reconciliation: initial import or catch-up plus
// trailing refresh, then media backfill, album merge and persistence. A
// failure before or during catch-up aborts the run; refresh and media
// problems degrade to partial coverage.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	info, err := retry.Do(ctx, s.logger, s.retryOpts, func() (models.ChannelInfo, error) {
		return s.source.Resolve(ctx)
	})
	if err != nil {
		return Result{}, fmt.Errorf("resolve channel %q: %w", s.channel, err)
	}
	s.logger.Info("channel resolved", "title", info.Title, "username", info.Username)

	existing := s.store.LoadPosts()
	meta := s.store.LoadMeta()

	watermark := meta.LastSeenMessageID
	for id := range existing {
		if id > watermark {
			watermark = id
		}
	}

	state := &runState{posts: existing, maxSeen: watermark}

	if len(existing) == 0 {
		if err := s.initialSync(ctx, info.Username, state); err != nil {
			return Result{}, fmt.Errorf("initial sync: %w", err)
		}
	} else {
		if err := s.catchUp(ctx, info.Username, state, watermark); err != nil {
			return Result{}, fmt.Errorf("catch-up after id %d: %w", watermark, err)
		}
		s.refresh(ctx, info.Username, state)
	}

	mediaDownloaded := 0
	avatar := meta.Avatar
	avatarChanged := false
	if !s.cfg.DryRun {
		if s.cfg.DownloadMedia {
			mediaDownloaded = s.fetcher.Backfill(ctx, state.posts, s.cfg.MediaDownloadScope)
		}
		if rel, changed := s.fetcher.DownloadAvatar(ctx); rel != "" {
			avatar = rel
			avatarChanged = changed
		}
	}

	merged := posts.MergeAlbums(state.posts)
	for id := range merged {
		state.observe(id)
	}

	result := Result{
		New:             state.newCount,
		Updated:         state.updated,
		MediaDownloaded: mediaDownloaded,
		PostsCount:      len(merged),
		Watermark:       state.maxSeen,
		Posts:           merged,
	}
	result.Meta = models.Meta{
		Title:             info.Title,
		Username:          info.Username,
		Channel:           s.channel,
		LastSyncUTC:       s.now().UTC().Format("2006-01-02T15:04:05Z"),
		PostsCount:        len(merged),
		LastSeenMessageID: state.maxSeen,
		Avatar:            avatar,
		Stats: models.Stats{
			New:             result.New,
			Updated:         result.Updated,
			MediaDownloaded: mediaDownloaded,
		},
	}
	result.Changed = result.New > 0 || result.Updated > 0 || mediaDownloaded > 0 || avatarChanged

	if s.cfg.DryRun {
		s.logger.Info("dry run, skipping persistence",
			"new", result.New, "updated", result.Updated, "posts", result.PostsCount)
		return result, nil
	}

	postsChanged, err := s.store.WritePosts(merged)
	if err != nil {
		return result, fmt.Errorf("write posts: %w", err)
	}
	result.Changed = result.Changed || postsChanged

	if result.Changed {
		if _, err := s.store.WriteMeta(result.Meta); err != nil {
			return result, fmt.Errorf("write meta: %w", err)
		}
	}

	s.logger.Info("sync finished",
		"new", result.New,
		"updated", result.Updated,
		"media_downloaded", result.MediaDownloaded,
		"posts", result.PostsCount,
		"watermark", result.Watermark,
		"changed", result.Changed)
	return result, nil
}

// initialSync populates an empty store. A configured limit imports the most
// recent messages and replays them oldest first so the watermark ends up
// deterministic; limit 0 streams the full history ascending.
func (s *Syncer) initialSync(ctx context.Context, username string, state *runState) error {
	if s.cfg.InitialLimit > 0 {
		s.logger.Info("initial sync with bounded import", "limit", s.cfg.InitialLimit)
		recent, err := retry.Do(ctx, s.logger, s.retryOpts, func() ([]models.RawMessage, error) {
			return s.source.Recent(ctx, s.cfg.InitialLimit)
		})
		if err != nil {
			return err
		}
		sort.Slice(recent, func(i, j int) bool { return recent[i].ID < recent[j].ID })
		for _, raw := range recent {
			state.apply(raw, username)
		}
		return nil
	}

	s.logger.Info("initial sync of full history")
	return s.source.ForEachAfter(ctx, 0, func(raw models.RawMessage) error {
		state.apply(raw, username)
		return nil
	})
}

// catchUp streams everything strictly after the resume watermark. Errors are
// fatal to the run so a partial catch-up is never committed.
func (s *Syncer) catchUp(ctx context.Context, username string, state *runState, watermark int64) error {
	return s.source.ForEachAfter(ctx, watermark, func(raw models.RawMessage) error {
		state.apply(raw, username)
		return nil
	})
}

// refresh re-inspects the trailing window to pick up edits and engagement
// changes below the watermark. Failures are logged and swallowed.
func (s *Syncer) refresh(ctx context.Context, username string, state *runState) {
	if s.cfg.RefreshLastN <= 0 {
		return
	}
	recent, err := retry.Do(ctx, s.logger, s.retryOpts, func() ([]models.RawMessage, error) {
		return s.source.Recent(ctx, s.cfg.RefreshLastN)
	})
	if err != nil {
		s.logger.Warn("trailing refresh failed, continuing with partial coverage", "error", err)
		return
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].ID < recent[j].ID })
	for _, raw := range recent {
		state.apply(raw, username)
	}
}
