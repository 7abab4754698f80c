package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tiercache/codec"
)

func TestBytes_Identity(t *testing.T) {
	t.Parallel()

	c := codec.Bytes{}
	b, err := c.Encode([]byte("payload"))
	require.NoError(t, err)

	v, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), v)
}

// Decode must copy so the value never aliases the file read buffer.
func TestBytes_DecodeCopies(t *testing.T) {
	t.Parallel()

	buf := []byte("abc")
	v, err := codec.Bytes{}.Decode(buf)
	require.NoError(t, err)

	buf[0] = 'X'
	assert.Equal(t, []byte("abc"), v)
}

func TestString_RoundTrip(t *testing.T) {
	t.Parallel()

	c := codec.String{}
	b, err := c.Encode("héllo 🙂")
	require.NoError(t, err)

	v, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "héllo 🙂", v)
}

func TestJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	c := codec.JSON[payload]{}

	b, err := c.Encode(payload{Name: "n", Count: 3})
	require.NoError(t, err)

	v, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "n", Count: 3}, v)
}

func TestJSON_DecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := codec.JSON[int]{}.Decode([]byte("{not json"))
	assert.Error(t, err)
}
