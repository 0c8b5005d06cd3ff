package utils

import (
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"
)

func header(contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	return &multipart.FileHeader{Filename: "upload", Header: h, Size: size}
}

func TestValidateMediaFile(t *testing.T) {
	u := New()

	tests := []struct {
		name   string
		file   *multipart.FileHeader
		prefix string
		want   error
	}{
		{"Image accepted", header("image/jpeg", 10), ImageMedia, nil},
		{"Video accepted", header("video/mp4", 10), VideoMedia, nil},
		{"Video rejected as image", header("video/mp4", 10), ImageMedia, ErrWrongMediaType},
		{"Missing content type", header("", 10), VideoMedia, ErrWrongMediaType},
		{"Octet stream rejected", header("application/octet-stream", 10), ImageMedia, ErrWrongMediaType},
		{"Too large", header("image/png", 200*1024*1024), ImageMedia, ErrFileTooLarge},
		{"No file", nil, ImageMedia, ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := u.ValidateMediaFile(tt.file, tt.prefix); !errors.Is(got, tt.want) {
				t.Errorf("ValidateMediaFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	a, err := u.NewULIDFromTimestamp(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := u.NewULIDFromTimestamp(time.Now())
	if len(a) != 26 || a == b {
		t.Errorf("unexpected ids %q %q", a, b)
	}
}
