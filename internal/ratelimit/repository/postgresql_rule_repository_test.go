package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratelimitDomain "github.com/allisson/controlplane/internal/ratelimit/domain"
	"github.com/allisson/controlplane/internal/testutil"
)

func newRule(name string) *ratelimitDomain.Rule {
	now := time.Now().UTC().Truncate(time.Second)
	return &ratelimitDomain.Rule{
		ID:            uuid.Must(uuid.NewV7()),
		Name:          name,
		Scope:         ratelimitDomain.ScopeUser,
		Algorithm:     ratelimitDomain.AlgorithmFixedWindow,
		Limit:         100,
		Window:        time.Minute,
		BurstCapacity: 0,
		Enabled:       true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestNewPostgreSQLRuleRepository(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestPostgreSQLRuleRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	rule := newRule("api-default")
	err := repo.Create(ctx, rule)
	assert.NoError(t, err)

	got, err := repo.GetByName(ctx, "api-default")
	assert.NoError(t, err)
	assert.Equal(t, rule.ID, got.ID)
	assert.Equal(t, ratelimitDomain.AlgorithmFixedWindow, got.Algorithm)
	assert.Equal(t, time.Minute, got.Window)
	assert.Equal(t, int64(100), got.Limit)
	assert.True(t, got.Enabled)
}

func TestPostgreSQLRuleRepository_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRule("api-default")))

	err := repo.Create(ctx, newRule("api-default"))
	assert.ErrorIs(t, err, ratelimitDomain.ErrRuleExists)
}

func TestPostgreSQLRuleRepository_GetByName_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	_, err := repo.GetByName(ctx, "missing")
	assert.ErrorIs(t, err, ratelimitDomain.ErrRuleNotFound)
}

func TestPostgreSQLRuleRepository_Update(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	rule := newRule("api-default")
	require.NoError(t, repo.Create(ctx, rule))

	rule.Algorithm = ratelimitDomain.AlgorithmTokenBucket
	rule.Limit = 60
	rule.Window = time.Hour
	rule.BurstCapacity = 10
	rule.Enabled = false
	rule.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	err := repo.Update(ctx, rule)
	assert.NoError(t, err)

	got, err := repo.GetByName(ctx, "api-default")
	require.NoError(t, err)
	assert.Equal(t, ratelimitDomain.AlgorithmTokenBucket, got.Algorithm)
	assert.Equal(t, int64(60), got.Limit)
	assert.Equal(t, time.Hour, got.Window)
	assert.Equal(t, int64(10), got.BurstCapacity)
	assert.False(t, got.Enabled)
}

func TestPostgreSQLRuleRepository_Update_NotFound(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	err := repo.Update(ctx, newRule("missing"))
	assert.ErrorIs(t, err, ratelimitDomain.ErrRuleNotFound)
}

func TestPostgreSQLRuleRepository_List(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRule("b-rule")))
	require.NoError(t, repo.Create(ctx, newRule("a-rule")))

	rules, err := repo.List(ctx, 0, 10)
	assert.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "a-rule", rules[0].Name)
	assert.Equal(t, "b-rule", rules[1].Name)

	rules, err = repo.List(ctx, 1, 10)
	assert.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "b-rule", rules[0].Name)
}

func TestPostgreSQLRuleRepository_Delete(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLRuleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRule("api-default")))

	err := repo.Delete(ctx, "api-default")
	assert.NoError(t, err)

	_, err = repo.GetByName(ctx, "api-default")
	assert.ErrorIs(t, err, ratelimitDomain.ErrRuleNotFound)

	err = repo.Delete(ctx, "api-default")
	assert.ErrorIs(t, err, ratelimitDomain.ErrRuleNotFound)
}
