package media

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDownloadAvatarReportsChange(t *testing.T) {
	source := new(MockSource)
	fetcher, store := newTestFetcher(t, source, 1<<20)

	payload := []byte("avatar bytes")
	source.On("DownloadAvatar", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(1), payload, 0o644))
		}).
		Return(true, nil)

	rel, changed := fetcher.DownloadAvatar(context.Background())
	assert.Equal(t, "assets/channel_avatar.jpg", rel)
	assert.True(t, changed)

	stored, err := os.ReadFile(store.AvatarPath())
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	// Same bytes on the next run: path is still reported, nothing changed.
	rel, changed = fetcher.DownloadAvatar(context.Background())
	assert.Equal(t, "assets/channel_avatar.jpg", rel)
	assert.False(t, changed)
}

func TestDownloadAvatarChannelWithoutPhoto(t *testing.T) {
	source := new(MockSource)
	fetcher, _ := newTestFetcher(t, source, 1<<20)

	source.On("DownloadAvatar", mock.Anything, mock.Anything).Return(false, nil)

	rel, changed := fetcher.DownloadAvatar(context.Background())
	assert.Empty(t, rel)
	assert.False(t, changed)
}
