/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package clipboard watches a Wayland compositor's wlr-data-control selection
// and replays stored entries back onto it via an external copy tool.
package clipboard

import "github.com/wayclip/wayclipd/internal/store"

// textMimeOrder lists the explicitly preferred text MIME types, most
// preferred first. Any other text/* offered is acceptable but ranks below
// these and above every image MIME type.
var textMimeOrder = []string{
	"text/plain;charset=utf-8",
	"text/plain",
}

// imageMimeOrder lists acceptable image MIME types, most preferred first.
// These only apply once no text/* MIME type was offered at all.
var imageMimeOrder = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// classify maps a concrete MIME type to its ContentType, or reports that the
// MIME type is not one the daemon stores.
func classify(mime string) (store.ContentType, bool) {
	switch {
	case isTextMime(mime):
		return store.ContentTypeText, true
	case isImageMime(mime):
		return store.ContentTypeImage, true
	default:
		return "", false
	}
}

func isTextMime(mime string) bool {
	return len(mime) >= 5 && mime[:5] == "text/"
}

func isImageMime(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/bmp", "image/tiff", "image/webp":
		return true
	default:
		return false
	}
}

// pickPreferredMime applies the MIME preference policy to the set of MIME
// types an offer advertised, returning the first acceptable one: the
// explicit text/plain variants, then any other text/*, then the image
// preference list.
func pickPreferredMime(offered []string) (string, bool) {
	set := make(map[string]bool, len(offered))
	for _, m := range offered {
		set[m] = true
	}

	for _, want := range textMimeOrder {
		if set[want] {
			return want, true
		}
	}

	for _, m := range offered {
		if isTextMime(m) {
			return m, true
		}
	}

	for _, want := range imageMimeOrder {
		if set[want] {
			return want, true
		}
	}
	return "", false
}
