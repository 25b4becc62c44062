package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIsURLSafe(t *testing.T) {
	text := Encode([]byte{0xfb, 0xff, 0xfe, 0x00, 0x10})

	assert.NotContains(t, text, "+")
	assert.NotContains(t, text, "/")
	assert.NotContains(t, text, "=")

	b, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff, 0xfe, 0x00, 0x10}, b)
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	b, err := Decode("  " + Encode([]byte("abc")) + "\n")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func TestDecodeMalformed(t *testing.T) {
	for _, s := range []string{"", "   ", "not base64!", "a", "abc=", "ab/c"} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", s)
	}
}

func TestDecodeIsStrict(t *testing.T) {
	// "QQ" is the canonical encoding of "A"; "QR" differs only in
	// padding bits and must not decode to the same bytes.
	b, err := Decode("QQ")
	require.NoError(t, err)
	assert.Equal(t, "A", string(b))

	_, err = Decode("QR")
	assert.ErrorIs(t, err, ErrMalformed)
}
