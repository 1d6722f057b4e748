package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	d, err := Distance(Hash{0xff, 0x00}, Hash{0x0f, 0x01})
	require.NoError(t, err)
	assert.Equal(t, 5, d)

	d, err = Distance(Hash{0xaa}, Hash{0xaa})
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = Distance(Hash{0x00}, Hash{0x00, 0x00})
	assert.Error(t, err)
}

func TestHexDistance(t *testing.T) {
	d, err := HexDistance("ff00", "0f01")
	require.NoError(t, err)
	assert.Equal(t, 5, d)

	_, err = HexDistance("zz", "00")
	assert.Error(t, err)
}

func TestParseHashRoundTrip(t *testing.T) {
	h := Hash{0xde, 0xad, 0xbe, 0xef}
	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
	assert.Equal(t, 32, parsed.Bits())
}

func TestPackBits(t *testing.T) {
	h := packBits([]bool{true, false, false, false, false, false, false, true, true})
	assert.Equal(t, Hash{0x81, 0x80}, h)
}
