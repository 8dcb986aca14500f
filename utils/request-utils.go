package utils

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// multipartOverhead is the room left for boundaries and form values on top of
// the payload limit.
const multipartOverhead = 1 << 20

// Upload is the GeoJSON payload of a cleaning request and its form options.
type Upload struct {
	Payload  []byte
	Filename string
	Values   map[string]string
}

// Value returns a form value, or "" when absent.
func (u Upload) Value(key string) string {
	return u.Values[key]
}

// ReadUpload reads the payload from the multipart field fileKey, from a
// "featureCollection" form value, or from the raw request body for
// application/json requests. Query parameters are merged into Values. The
// payload may not exceed maxBytes.
func ReadUpload(r *http.Request, fileKey string, maxBytes int64) (Upload, error) {
	result := Upload{Values: make(map[string]string)}
	for key, value := range r.URL.Query() {
		if len(value) > 0 {
			result.Values[key] = value[0]
		}
	}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
		if err != nil {
			return result, fmt.Errorf("error reading request body: %w", err)
		}
		if int64(len(body)) > maxBytes {
			return result, fmt.Errorf("request body exceeds %d bytes", maxBytes)
		}
		result.Payload = body
		return result, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return result, fmt.Errorf("error parsing multipart form: %w", err)
	}

	for key, value := range r.MultipartForm.Value {
		if len(value) > 0 {
			result.Values[key] = value[0]
		}
	}

	if headers, ok := r.MultipartForm.File[fileKey]; ok && len(headers) > 0 {
		fileHeader := headers[0]
		if fileHeader.Size > maxBytes {
			return result, fmt.Errorf("uploaded file exceeds %d bytes", maxBytes)
		}
		file, err := fileHeader.Open()
		if err != nil {
			return result, fmt.Errorf("error opening uploaded file: %w", err)
		}
		defer file.Close()

		fullFile, err := io.ReadAll(file)
		if err != nil {
			return result, fmt.Errorf("error reading uploaded file: %w", err)
		}
		result.Payload = fullFile
		result.Filename = strings.TrimSuffix(filepath.Base(fileHeader.Filename), filepath.Ext(fileHeader.Filename))
		return result, nil
	}

	if fc := result.Values["featureCollection"]; fc != "" {
		if int64(len(fc)) > maxBytes {
			return result, fmt.Errorf("featureCollection exceeds %d bytes", maxBytes)
		}
		result.Payload = []byte(fc)
		return result, nil
	}

	return result, fmt.Errorf("no suitable files found")
}
