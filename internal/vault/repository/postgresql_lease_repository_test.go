package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/controlplane/internal/testutil"
)

func TestNewPostgreSQLLeaseRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestPostgreSQLLeaseRepository_Acquire(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	assert.NoError(t, err)
	assert.True(t, acquired)
}

func TestPostgreSQLLeaseRepository_Acquire_HeldByOther(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = repo.Acquire(ctx, "vault-rotation", "instance-b", time.Minute)
	assert.NoError(t, err)
	assert.False(t, acquired)
}

func TestPostgreSQLLeaseRepository_Acquire_RenewsOwnLease(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	assert.NoError(t, err)
	assert.True(t, acquired)
}

func TestPostgreSQLLeaseRepository_Acquire_ExpiredLeaseIsClaimable(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", -time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = repo.Acquire(ctx, "vault-rotation", "instance-b", time.Minute)
	assert.NoError(t, err)
	assert.True(t, acquired)
}

func TestPostgreSQLLeaseRepository_Release(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	err = repo.Release(ctx, "vault-rotation", "instance-a")
	assert.NoError(t, err)

	acquired, err = repo.Acquire(ctx, "vault-rotation", "instance-b", time.Minute)
	assert.NoError(t, err)
	assert.True(t, acquired)
}

func TestPostgreSQLLeaseRepository_Release_WrongHolderIsNoop(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLLeaseRepository(db)
	ctx := context.Background()

	acquired, err := repo.Acquire(ctx, "vault-rotation", "instance-a", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	err = repo.Release(ctx, "vault-rotation", "instance-b")
	assert.NoError(t, err)

	// Still held by instance-a.
	acquired, err = repo.Acquire(ctx, "vault-rotation", "instance-b", time.Minute)
	assert.NoError(t, err)
	assert.False(t, acquired)
}
