// Package earendel talks to NASA's Astronomy Picture of the Day: the JSON API for the
// day's picture and the archive page for the FITS files behind it.
package earendel
