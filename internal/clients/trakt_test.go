package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/showlink/internal/retry"
	"github.com/jacklaaa89/trakt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIterator struct {
	shows   []*trakt.Show
	scanErr map[int]error
	pos     int
	err     error
}

func (f *fakeIterator) Next() bool {
	if f.pos >= len(f.shows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeIterator) Show() (*trakt.Show, error) {
	if err := f.scanErr[f.pos-1]; err != nil {
		return nil, err
	}
	return f.shows[f.pos-1], nil
}

func (f *fakeIterator) Err() error {
	return f.err
}

func decodeShow(t *testing.T, payload string) *trakt.Show {
	t.Helper()
	var item trakt.Show
	require.NoError(t, json.Unmarshal([]byte(payload), &item))
	return &item
}

func titled(t *testing.T, titles ...string) []*trakt.Show {
	t.Helper()
	shows := make([]*trakt.Show, 0, len(titles))
	for i, title := range titles {
		payload := fmt.Sprintf(`{"title":%q,"year":2020,"ids":{"trakt":%d}}`, title, i+1)
		shows = append(shows, decodeShow(t, payload))
	}
	return shows
}

func TestCollectShows(t *testing.T) {
	tests := []struct {
		name  string
		shows []string
		limit int
		want  []string
	}{
		{name: "stops at limit", shows: []string{"a", "b", "c", "d"}, limit: 3, want: []string{"a", "b", "c"}},
		{name: "fewer than limit", shows: []string{"a"}, limit: 10, want: []string{"a"}},
		{name: "empty", shows: nil, limit: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := &fakeIterator{shows: titled(t, tt.shows...)}
			got, err := collectShows(context.Background(), it, tt.limit)
			require.NoError(t, err)

			titles := make([]string, 0, len(got))
			for _, show := range got {
				titles = append(titles, show.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestCollectShows_SkipsUndecodableItems(t *testing.T) {
	it := &fakeIterator{
		shows:   titled(t, "a", "b", "c"),
		scanErr: map[int]error{1: errors.New("invalid type")},
	}
	got, err := collectShows(context.Background(), it, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
}

func TestCollectShows_IteratorErrorKeepsStatus(t *testing.T) {
	it := &fakeIterator{err: &trakt.Error{HTTPStatusCode: http.StatusServiceUnavailable}}
	_, err := collectShows(context.Background(), it, 10)
	require.Error(t, err)
	assert.True(t, retry.IsTransient(err))
}

func TestCollectShows_IteratorError(t *testing.T) {
	it := &fakeIterator{err: errors.New("stream broken")}
	_, err := collectShows(context.Background(), it, 10)
	assert.ErrorContains(t, err, "stream broken")
}

func TestCollectShows_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	it := &fakeIterator{shows: titled(t, "a")}
	_, err := collectShows(ctx, it, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToCatalogShow(t *testing.T) {
	item := decodeShow(t, `{
		"title": "Dark",
		"year": 2017,
		"ids": {"trakt": 123, "slug": "dark", "imdb": "tt5753856", "tmdb": 70523, "tvdb": 334824},
		"overview": "A missing child sets four families on a frantic hunt for answers.",
		"status": "ended"
	}`)

	got := toCatalogShow(item)
	assert.Equal(t, int64(123), got.TraktID)
	assert.Equal(t, "dark", got.Slug)
	assert.Equal(t, "tt5753856", got.IMDB)
	assert.Equal(t, "Dark", got.Title)
	assert.Equal(t, int64(2017), got.Year)
	assert.Equal(t, "ended", got.Status)
}

func TestRelatedParams(t *testing.T) {
	c := NewTraktClient("key", "", "", time.Second)
	ctx := context.Background()

	params := c.relatedParams(ctx, 0, 25)
	require.NotNil(t, params.Page)
	require.NotNil(t, params.Limit)
	assert.Equal(t, int64(1), *params.Page)
	assert.Equal(t, int64(25), *params.Limit)
	assert.Equal(t, ctx, params.Context)

	params = c.relatedParams(ctx, 2, 10)
	assert.Equal(t, int64(3), *params.Page)
}

func TestShowParams(t *testing.T) {
	c := NewTraktClient("key", "", "", time.Second)
	params := c.showParams(context.Background())
	assert.Equal(t, trakt.ExtendedTypeFull, params.Extended)
	assert.Nil(t, params.Headers)
}

func TestAuthHeaders(t *testing.T) {
	c := NewTraktClient("key", "", "", time.Second)
	assert.Nil(t, c.authHeaders())

	c.setToken(&trakt.Token{AccessToken: "access"})
	assert.Equal(t, "Bearer access", c.authHeaders().Get("Authorization"))
	assert.Equal(t, "Bearer access", c.relatedParams(context.Background(), 0, 10).Headers.Get("Authorization"))
	assert.Equal(t, "Bearer access", c.showParams(context.Background()).Headers.Get("Authorization"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{name: "rate limited", err: &trakt.Error{HTTPStatusCode: http.StatusTooManyRequests}, wantTransient: true},
		{name: "unavailable", err: &trakt.Error{HTTPStatusCode: http.StatusServiceUnavailable}, wantTransient: true},
		{name: "not found", err: &trakt.Error{HTTPStatusCode: http.StatusNotFound}, wantTransient: false},
		{name: "plain error", err: errors.New("decoding response"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("fetching related shows for 15003: %w", classify(tt.err))
			assert.Equal(t, tt.wantTransient, retry.IsTransient(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	token := &trakt.Token{AccessToken: "access", RefreshToken: "refresh"}

	require.NoError(t, saveToken(token, path))
	assert.True(t, fileExists(path))

	loaded, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
}

func TestNewTraktClient_DoesNotLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	c := NewTraktClient("key", "secret", path, time.Second)
	assert.False(t, c.Authenticated())
	assert.False(t, fileExists(path))
}

func TestAuthenticate_LoadsSavedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(&trakt.Token{AccessToken: "access", RefreshToken: "refresh"}, path))

	c := NewTraktClient("key", "secret", path, time.Second)
	require.NoError(t, c.Authenticate())
	assert.True(t, c.Authenticated())
	assert.Equal(t, "access", c.accessToken())
}

func TestAuthenticate_WithoutSecret(t *testing.T) {
	c := NewTraktClient("key", "", filepath.Join(t.TempDir(), "token.json"), time.Second)
	require.NoError(t, c.Authenticate())
	assert.False(t, c.Authenticated())
	assert.NoError(t, c.RefreshToken(context.Background()))
}

func TestTokenAccessIsSynchronized(t *testing.T) {
	c := NewTraktClient("key", "", "", time.Second)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.setToken(&trakt.Token{AccessToken: fmt.Sprintf("token-%d", i)})
		}()
		go func() {
			defer wg.Done()
			_ = c.authHeaders()
		}()
	}
	wg.Wait()
	assert.True(t, c.Authenticated())
}
