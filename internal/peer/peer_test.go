package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Resolve(t *testing.T) {
	d, err := ParseDirectory("proxy-a=proxy-a.internal:9000, proxy-b = 10.0.0.7:8080")
	require.NoError(t, err)

	addr, err := d.Resolve("proxy-a")
	require.NoError(t, err)
	assert.Equal(t, "proxy-a.internal:9000", addr)

	addr, err = d.Resolve("proxy-b")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7:8080", addr)

	_, err = d.Resolve("proxy-c")
	assert.ErrorIs(t, err, ErrUnknownPeer)
	assert.ErrorContains(t, err, "known: proxy-a, proxy-b")
}

func TestDirectory_Passthrough(t *testing.T) {
	d, err := ParseDirectory("")
	require.NoError(t, err)

	addr, err := d.Resolve("proxy:9000")
	require.NoError(t, err)
	assert.Equal(t, "proxy:9000", addr)

	var nilDir *Directory
	addr, err = nilDir.Resolve("proxy")
	require.NoError(t, err)
	assert.Equal(t, "proxy", addr)

	_, err = d.Resolve("  ")
	assert.ErrorIs(t, err, ErrUnknownPeer)
}

func TestParseDirectory_Invalid(t *testing.T) {
	for _, s := range []string{"proxy", "=host", "id=", "a=x,a=y"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseDirectory(s)
			assert.ErrorIs(t, err, ErrInvalidDirectory)
		})
	}
}
