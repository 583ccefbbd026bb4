package domain

import "context"

// PictureSource fetches the current picture of the day from upstream.
type PictureSource interface {
	Picture(ctx context.Context) (Picture, error)
}

// FitsFinder lists the FITS files published alongside the picture for a date (YYYY-MM-DD).
type FitsFinder interface {
	FitsFiles(ctx context.Context, date string) (FitsListing, error)
}

// AstronomyService serves the picture of the day and its FITS files.
type AstronomyService interface {
	PictureOfTheDay(ctx context.Context) (Picture, error)
	FitsOfTheDay(ctx context.Context) (FitsListing, error)
}
