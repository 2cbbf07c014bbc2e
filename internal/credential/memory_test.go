package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	var s Store = NewMemoryStore()

	_, err := s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(TokenKey, "abc"))
	got, err := s.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, s.Delete(TokenKey))
	require.NoError(t, s.Delete(TokenKey), "deleting twice is fine")
	_, err = s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
