package ticketcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := New()

		assert.Len(t, code, 32)
		assert.NotContains(t, code, "-")
		assert.False(t, seen[code], "codes must be unique")
		seen[code] = true
	}
}

func TestQRDataURL(t *testing.T) {
	url, err := QRDataURL(New())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Greater(t, len(url), len("data:image/png;base64,"))
}
