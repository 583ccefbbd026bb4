package domain

// Picture is the astronomy picture of the day, including the image bytes.
type Picture struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Copyright   string `json:"copyright,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Image       []byte `json:"img,omitempty"`
}

// FitsListing lists FITS files linked from the picture's archive page.
type FitsListing struct {
	Date  string   `json:"date"`
	Page  string   `json:"page"`
	Files []string `json:"files"`
}
