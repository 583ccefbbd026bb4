package earendel

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/pscheid92/yggdrasil/internal/domain"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/singleflight"
)

var fitsExtensions = []string{".fits", ".fit", ".fts"}

// PageName returns the archive page name for a picture date, e.g. ap240310.html for 2024-03-10.
func PageName(date string) (string, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return "", fmt.Errorf("invalid picture date %q: %w", date, err)
	}
	return "ap" + day.Format("060102") + ".html", nil
}

// FitsFiles scrapes the archive page for date and returns absolute links to FITS files.
// Concurrent lookups for the same date share one request.
func (c *Client) FitsFiles(ctx context.Context, date string) (domain.FitsListing, error) {
	name, err := PageName(date)
	if err != nil {
		return domain.FitsListing{}, err
	}
	page := c.pageURL.ResolveReference(&url.URL{Path: name})

	// The shared fetch outlives any single caller; the client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	results := c.pages.DoChan(date, func() (any, error) {
		body, _, err := c.get(fetchCtx, targetPage, page.String(), maxPageBytes)
		if err != nil {
			return nil, err
		}
		return extractFitsLinks(body, page)
	})

	var result singleflight.Result
	select {
	case result = <-results:
	case <-ctx.Done():
		return domain.FitsListing{}, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
	}
	if result.Err != nil {
		return domain.FitsListing{}, result.Err
	}

	files := result.Val.([]string)
	slog.Debug("FITS lookup finished", "date", date, "files", len(files), "shared", result.Shared)

	return domain.FitsListing{
		Date:  date,
		Page:  page.String(),
		Files: append([]string{}, files...),
	}, nil
}

func extractFitsLinks(body []byte, base *url.URL) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse apod page: %w", err)
	}

	files := []string{}
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				link, err := base.Parse(strings.TrimSpace(a.Val))
				if err != nil || !isFits(link.Path) {
					continue
				}
				abs := link.String()
				if _, dup := seen[abs]; !dup {
					seen[abs] = struct{}{}
					files = append(files, abs)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return files, nil
}

func isFits(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == ".gz" {
		ext = strings.ToLower(path.Ext(strings.TrimSuffix(p, path.Ext(p))))
	}
	return slices.Contains(fitsExtensions, ext)
}
