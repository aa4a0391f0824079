package utils

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// ParseDataURL splits a "data:<mime>;base64,<payload>" string into its MIME
// type and decoded bytes. The engine accepts attached images only in this
// form.
func ParseDataURL(s string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	rest := strings.TrimPrefix(s, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL missing payload")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("data URL is not base64-encoded")
	}
	mimeType = strings.TrimSuffix(meta, ";base64")
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return mimeType, data, nil
}
