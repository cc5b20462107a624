package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgate/pkg/platform/sentinel"
)

func TestRoleLookup(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemoryDirectory()
	dir.Seed(map[string]string{"user-1": "admin"})

	role, err := dir.Role(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	_, err = dir.Role(ctx, "stranger")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSeedReplacesExisting(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemoryDirectory()
	dir.Seed(map[string]string{"user-1": "viewer"})
	dir.Seed(map[string]string{"user-1": "admin"})

	role, err := dir.Role(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
}
