package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	for _, kind := range []string{"", "memory"} {
		s, err := NewStore(kind, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
		assert.NoError(t, CloseIfSupported(s))
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore("postgres", "")
	assert.ErrorContains(t, err, "unsupported store backend")
}
