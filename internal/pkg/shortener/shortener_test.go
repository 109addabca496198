package shortener

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureSlug_InvalidLength(t *testing.T) {
	t.Parallel()

	_, err := GenerateSecureSlug(0)
	assert.Error(t, err)
	_, err = GenerateEventCode(-1)
	assert.Error(t, err)
}

func TestGenerateSecureSlug_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	slug, err := GenerateSecureSlug(10)
	require.NoError(t, err)
	require.Len(t, slug, 10)
	for i := 0; i < len(slug); i++ {
		assert.NotEqual(t, -1, strings.IndexByte(alphabet, slug[i]), "invalid character %q", slug[i])
	}
}

func TestGenerateEventCode_Unambiguous(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := GenerateEventCode(DefaultCodeLength)
		require.NoError(t, err)
		require.Len(t, code, DefaultCodeLength)
		assert.False(t, strings.ContainsAny(code, "01OIabc"), "code %s", code)

		_, dup := seen[code]
		require.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}

func TestEncodeDecodeID(t *testing.T) {
	t.Parallel()

	for _, id := range []uint{0, 1, 61, 62, 3843, 3844, 1 << 30} {
		assert.Equal(t, id, DecodeID(EncodeID(id)), "id %d", id)
	}
	assert.Equal(t, "10", EncodeID(62))
}
