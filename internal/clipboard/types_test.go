package clipboard

import (
	"testing"

	"github.com/wayclip/wayclipd/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		mime   string
		want   store.ContentType
		wantOK bool
	}{
		{"text/plain", store.ContentTypeText, true},
		{"text/plain;charset=utf-8", store.ContentTypeText, true},
		{"text/html", store.ContentTypeText, true},
		{"image/png", store.ContentTypeImage, true},
		{"image/jpeg", store.ContentTypeImage, true},
		{"image/bmp", store.ContentTypeImage, true},
		{"image/tiff", store.ContentTypeImage, true},
		{"image/webp", store.ContentTypeImage, true},
		{"image/gif", "", false},
		{"application/octet-stream", "", false},
	}

	for _, tt := range tests {
		got, ok := classify(tt.mime)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("classify(%q) = (%q, %v), want (%q, %v)", tt.mime, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPickPreferredMime(t *testing.T) {
	tests := []struct {
		name    string
		offered []string
		want    string
		wantOK  bool
	}{
		{"prefers utf8 text", []string{"text/plain", "text/plain;charset=utf-8"}, "text/plain;charset=utf-8", true},
		{"falls back to plain text", []string{"text/html", "text/plain"}, "text/plain", true},
		{"any other text wins over no match", []string{"text/html"}, "text/html", true},
		{"any other text wins over an image offered alongside it", []string{"image/png", "text/html"}, "text/html", true},
		{"prefers png over jpeg", []string{"image/jpeg", "image/png"}, "image/png", true},
		{"no acceptable mime", []string{"application/octet-stream"}, "", false},
		{"empty offer", nil, "", false},
	}

	for _, tt := range tests {
		got, ok := pickPreferredMime(tt.offered)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("%s: pickPreferredMime(%v) = (%q, %v), want (%q, %v)", tt.name, tt.offered, got, ok, tt.want, tt.wantOK)
		}
	}
}
