package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/cache"
	"github.com/pscheid92/yggdrasil/internal/domain"
)

const pictureCacheName = "apod"

// Service is the application layer for the astronomy pages.
type Service struct {
	pictures *cache.Daily[domain.Picture]
	fits     domain.FitsFinder
}

func NewService(source domain.PictureSource, fits domain.FitsFinder, clock clockwork.Clock) *Service {
	return &Service{
		pictures: cache.New(pictureCacheName, source.Picture, clock),
		fits:     fits,
	}
}

// PictureOfTheDay returns today's picture, fetching it at most once per UTC day.
func (s *Service) PictureOfTheDay(ctx context.Context) (domain.Picture, error) {
	return s.pictures.Get(ctx)
}

// FitsOfTheDay looks up the FITS files for the cached picture's date. Listings are not cached.
func (s *Service) FitsOfTheDay(ctx context.Context) (domain.FitsListing, error) {
	picture, err := s.pictures.Get(ctx)
	if err != nil {
		return domain.FitsListing{}, err
	}

	listing, err := s.fits.FitsFiles(ctx, picture.Date)
	if err != nil {
		return domain.FitsListing{}, fmt.Errorf("fits lookup for %s: %w: %w", picture.Date, domain.ErrUpstreamUnavailable, err)
	}
	return listing, nil
}

// CachedDay reports the UTC day of the cached picture, if any.
func (s *Service) CachedDay() (string, bool) {
	_, day, ok := s.pictures.Peek()
	return day, ok
}
