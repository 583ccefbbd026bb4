package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockPictureSource struct {
	calls     atomic.Int32
	pictureFn func(ctx context.Context) (domain.Picture, error)
}

func (m *mockPictureSource) Picture(ctx context.Context) (domain.Picture, error) {
	m.calls.Add(1)
	if m.pictureFn != nil {
		return m.pictureFn(ctx)
	}
	return domain.Picture{Date: "2024-03-10", Title: "Horsehead"}, nil
}

type mockFitsFinder struct {
	dates  []string
	fitsFn func(ctx context.Context, date string) (domain.FitsListing, error)
}

func (m *mockFitsFinder) FitsFiles(ctx context.Context, date string) (domain.FitsListing, error) {
	m.dates = append(m.dates, date)
	if m.fitsFn != nil {
		return m.fitsFn(ctx, date)
	}
	return domain.FitsListing{Date: date, Files: []string{"https://apod.example/a.fits"}}, nil
}

func newTestService(source *mockPictureSource, fits *mockFitsFinder) (*Service, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	return NewService(source, fits, clock), clock
}

// --- Tests ---

func TestPictureOfTheDay_CachedForTheDay(t *testing.T) {
	source := &mockPictureSource{}
	svc, clock := newTestService(source, &mockFitsFinder{})

	first, err := svc.PictureOfTheDay(context.Background())
	require.NoError(t, err)
	clock.Advance(6 * time.Hour)
	second, err := svc.PictureOfTheDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), source.calls.Load())

	clock.Advance(6 * time.Hour)
	_, err = svc.PictureOfTheDay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestPictureOfTheDay_UpstreamFailure(t *testing.T) {
	source := &mockPictureSource{pictureFn: func(context.Context) (domain.Picture, error) {
		return domain.Picture{}, errors.New("apod_api returned status 503")
	}}
	svc, _ := newTestService(source, &mockFitsFinder{})

	_, err := svc.PictureOfTheDay(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFitsOfTheDay_UsesCachedPictureDate(t *testing.T) {
	source := &mockPictureSource{}
	fits := &mockFitsFinder{}
	svc, _ := newTestService(source, fits)

	_, err := svc.PictureOfTheDay(context.Background())
	require.NoError(t, err)

	listing, err := svc.FitsOfTheDay(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10", listing.Date)
	assert.Equal(t, []string{"2024-03-10"}, fits.dates)
	assert.Equal(t, int32(1), source.calls.Load(), "picture should come from the cache")
}

func TestFitsOfTheDay_NotCached(t *testing.T) {
	fits := &mockFitsFinder{}
	svc, _ := newTestService(&mockPictureSource{}, fits)

	for range 3 {
		_, err := svc.FitsOfTheDay(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, fits.dates, 3)
}

func TestFitsOfTheDay_PictureFailureSkipsLookup(t *testing.T) {
	source := &mockPictureSource{pictureFn: func(context.Context) (domain.Picture, error) {
		return domain.Picture{}, errors.New("timeout")
	}}
	fits := &mockFitsFinder{}
	svc, _ := newTestService(source, fits)

	_, err := svc.FitsOfTheDay(context.Background())
	require.Error(t, err)
	assert.Empty(t, fits.dates)
}

func TestFitsOfTheDay_LookupFailure(t *testing.T) {
	fits := &mockFitsFinder{fitsFn: func(context.Context, string) (domain.FitsListing, error) {
		return domain.FitsListing{}, errors.New("apod_page returned status 404")
	}}
	svc, _ := newTestService(&mockPictureSource{}, fits)

	_, err := svc.FitsOfTheDay(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "2024-03-10")
}

func TestCachedDay(t *testing.T) {
	source := &mockPictureSource{}
	svc, _ := newTestService(source, &mockFitsFinder{})

	_, ok := svc.CachedDay()
	assert.False(t, ok)
	assert.Equal(t, int32(0), source.calls.Load())

	_, err := svc.PictureOfTheDay(context.Background())
	require.NoError(t, err)

	day, ok := svc.CachedDay()
	assert.True(t, ok)
	assert.Equal(t, "2024-03-10", day)
	assert.Equal(t, int32(1), source.calls.Load())
}
