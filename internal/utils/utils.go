package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
)

// --- 1. Error Reporting ---

// ShowError prints a formatted error box to stderr without exiting.
func ShowError(context string, err error) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 FACEMASK ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// Die is the unified exit strategy for commands that cannot continue.
func Die(context string, err error) {
	ShowError(context, err)
	os.Exit(1)
}

// --- 2. Upload Helpers (Shared by Client & Proxy) ---

// DefaultFilename is sent when an upload carries no name of its own.
const DefaultFilename = "image.jpg"

// SniffContentType returns the explicit type if set, otherwise detects it
// from the leading bytes. http.DetectContentType knows jpeg, png, gif and webp.
func SniffContentType(explicit string, data []byte) string {
	if ct := strings.TrimSpace(explicit); ct != "" {
		return ct
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// WriteFilePart adds a file field to mw. Unlike multipart.Writer.CreateFormFile
// it keeps the file's own content type instead of forcing application/octet-stream.
func WriteFilePart(mw *multipart.Writer, field, filename, contentType string, r io.Reader) error {
	if filename == "" {
		filename = DefaultFilename
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file data: %w", err)
	}
	return nil
}
