package utils

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"
	"testing"
)

func TestSniffContentType(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'}

	tests := []struct {
		name     string
		explicit string
		data     []byte
		want     string
	}{
		{"Explicit wins", "image/webp", png, "image/webp"},
		{"PNG magic", "", png, "image/png"},
		{"JPEG magic", "", jpeg, "image/jpeg"},
		{"Empty", "", nil, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffContentType(tt.explicit, tt.data); got != tt.want {
				t.Errorf("SniffContentType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteFilePart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := WriteFilePart(mw, "file", "", "image/png", strings.NewReader("pixels")); err != nil {
		t.Fatalf("WriteFilePart failed: %v", err)
	}
	mw.Close()

	r := multipart.NewReader(&buf, mw.Boundary())
	part, err := r.NextPart()
	if err != nil {
		t.Fatalf("NextPart failed: %v", err)
	}
	if part.FormName() != "file" {
		t.Errorf("FormName = %q, want file", part.FormName())
	}
	// Missing names fall back to the placeholder
	if part.FileName() != DefaultFilename {
		t.Errorf("FileName = %q, want %q", part.FileName(), DefaultFilename)
	}
	if ct := part.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	data, _ := io.ReadAll(part)
	if string(data) != "pixels" {
		t.Errorf("Body = %q, want pixels", data)
	}
}
