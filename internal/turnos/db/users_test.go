package db_test

import (
	"context"
	"testing"

	"ms-turnos/internal/models"
	"ms-turnos/internal/turnos/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAccountExistsAfterInit(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	exists, err := store.UserExists(ctx, "secretaria")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInitIsIdempotent(t *testing.T) {
	store, bunDB := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Init(ctx, "secretaria", "1234"))
	require.NoError(t, store.Init(ctx, "secretaria", "other"))

	count, err := bunDB.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The first seed wins
	_, err = store.Authenticate(ctx, "secretaria", "1234")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	store, _ := setupTestDB(t)
	ctx := context.Background()

	user, err := store.Authenticate(ctx, "secretaria", "1234")
	require.NoError(t, err)
	assert.Equal(t, "secretaria", user.Username)

	_, err = store.Authenticate(ctx, "secretaria", "wrong")
	assert.ErrorIs(t, err, db.ErrInvalidCredentials)

	_, err = store.Authenticate(ctx, "nobody", "1234")
	assert.ErrorIs(t, err, db.ErrInvalidCredentials)
}
