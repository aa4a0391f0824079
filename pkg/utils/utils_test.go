package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))
	mime, data, err := ParseDataURL("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, []byte("pixels"), data)
}

func TestParseDataURL_Rejections(t *testing.T) {
	cases := []string{
		"http://example.com/img.png",
		"data:image/png;base64",
		"data:image/png,rawtext",
		"data:image/png;base64,!!!notbase64!!!",
	}
	for _, s := range cases {
		_, _, err := ParseDataURL(s)
		assert.Error(t, err, s)
	}
}

func TestParseDataURL_SniffsMissingMime(t *testing.T) {
	// Minimal GIF header so content sniffing has something to go on.
	payload := base64.StdEncoding.EncodeToString([]byte("GIF89a\x01\x00\x01\x00"))
	mime, _, err := ParseDataURL("data:;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mime)
}

func TestGenerateRunID(t *testing.T) {
	a := GenerateRunID()
	b := GenerateRunID()
	assert.Len(t, a, 24)
	assert.NotEqual(t, a, b)
}

func TestTimestampPrefix(t *testing.T) {
	p := TimestampPrefix()
	assert.Len(t, p, 9)
	assert.Equal(t, byte('_'), p[8])
}
