package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	token, err := Encode(Cursor{UserID: "u-42", CreatedUnix: 1760000000123})
	require.NoError(t, err)

	c, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", c.UserID)
	assert.Equal(t, int64(1760000000123), c.CreatedUnix)
	assert.False(t, c.IsZero())
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	c, err := Decode("")
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	_, err = Decode("%%%")
	assert.Error(t, err)

	_, err = Decode("bm90LWpzb24=") // "not-json"
	assert.Error(t, err)
}
