package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/repository"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedProperty(t *testing.T, gdb *gorm.DB) (propertyID, hostID uint64) {
	t.Helper()
	host := db.User{Email: "host@test.com", FirstName: "Hanna", Provider: "email", Active: true}
	require.NoError(t, gdb.Create(&host).Error)
	p := db.Property{HostID: host.ID, Title: "Loft"}
	require.NoError(t, gdb.Create(&p).Error)
	return p.ID, host.ID
}

func mustLike(t *testing.T, repo *repository.SwipeRepository, userID, propertyID uint64) {
	t.Helper()
	_, err := repo.UpsertLike(context.Background(), userID, propertyID)
	require.NoError(t, err)
}

func mustDislike(t *testing.T, repo *repository.SwipeRepository, userID, propertyID uint64) {
	t.Helper()
	_, err := repo.UpsertDislike(context.Background(), userID, propertyID)
	require.NoError(t, err)
}

func TestUpsertLikeOverwritesDislike(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	mustDislike(t, repo, 5, 9)

	swipe, err := repo.Get(ctx, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, db.StatusNone, swipe.Status)
	require.NotNil(t, swipe.HideUntil)
	assert.WithinDuration(t, time.Now().UTC().Add(repository.DislikeHold), *swipe.HideUntil, time.Minute)

	// like clears the hold and moves to pending, still one row
	mustLike(t, repo, 5, 9)

	swipe, err = repo.Get(ctx, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, swipe.Status)
	assert.Nil(t, swipe.HideUntil)

	var count int64
	gdb.Model(&db.PropertySwipe{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRepeatedLikeKeepsSingleRow(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	mustLike(t, repo, 5, 9)
	require.NoError(t, repo.AppendHistory(ctx, 5, 9, db.ActionLike))
	mustLike(t, repo, 5, 9)
	require.NoError(t, repo.AppendHistory(ctx, 5, 9, db.ActionLike))

	var swipes int64
	gdb.Model(&db.PropertySwipe{}).Count(&swipes)
	assert.Equal(t, int64(1), swipes)

	history, err := repo.History(ctx, 5, 9)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpsertReportsInterestTransitions(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	// first like enters the live set
	became, err := repo.UpsertLike(ctx, 5, 9)
	require.NoError(t, err)
	assert.True(t, became)

	// re-like of a pending swipe is a no-op transition-wise
	became, err = repo.UpsertLike(ctx, 5, 9)
	require.NoError(t, err)
	assert.False(t, became)

	// dislike leaves the live set exactly once
	left, err := repo.UpsertDislike(ctx, 5, 9)
	require.NoError(t, err)
	assert.True(t, left)

	left, err = repo.UpsertDislike(ctx, 5, 9)
	require.NoError(t, err)
	assert.False(t, left)

	// disliking a pair with no prior row is not a transition out
	left, err = repo.UpsertDislike(ctx, 6, 9)
	require.NoError(t, err)
	assert.False(t, left)

	// an approved swipe is live, so disliking it is a transition out
	became, err = repo.UpsertLike(ctx, 7, 9)
	require.NoError(t, err)
	assert.True(t, became)
	_, err = repo.Approve(ctx, 7, 9)
	require.NoError(t, err)
	became, err = repo.UpsertLike(ctx, 7, 9)
	require.NoError(t, err)
	assert.False(t, became)
	left, err = repo.UpsertDislike(ctx, 7, 9)
	require.NoError(t, err)
	assert.True(t, left)
}

func TestMarkWithdrawnRequiresPending(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	// nothing to withdraw yet
	withdrawn, err := repo.MarkWithdrawn(ctx, 5, 9)
	require.NoError(t, err)
	assert.False(t, withdrawn)

	mustLike(t, repo, 5, 9)

	withdrawn, err = repo.MarkWithdrawn(ctx, 5, 9)
	require.NoError(t, err)
	assert.True(t, withdrawn)

	// second withdraw hits a withdrawn row, not a pending one
	withdrawn, err = repo.MarkWithdrawn(ctx, 5, 9)
	require.NoError(t, err)
	assert.False(t, withdrawn)
}

func TestApproveReturnsSwipeID(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	mustLike(t, repo, 5, 9)

	id, err := repo.Approve(ctx, 5, 9)
	require.NoError(t, err)
	assert.NotZero(t, id)

	swipe, err := repo.Get(ctx, 5, 9)
	require.NoError(t, err)
	assert.Equal(t, db.StatusApproved, swipe.Status)

	// approving again finds no pending row
	_, err = repo.Approve(ctx, 5, 9)
	assert.True(t, repository.IsNotFound(err))
}

func TestRejectScopedToHostProperties(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	owned, hostID := seedProperty(t, gdb)

	foreign := db.Property{HostID: hostID + 100, Title: "Someone else's"}
	require.NoError(t, gdb.Create(&foreign).Error)

	mustLike(t, repo, 42, owned)
	mustLike(t, repo, 42, foreign.ID)

	rejected, err := repo.Reject(ctx, hostID, 42)
	require.NoError(t, err)
	assert.Equal(t, []uint64{owned}, rejected)

	swipe, err := repo.Get(ctx, 42, owned)
	require.NoError(t, err)
	assert.Equal(t, db.StatusRejected, swipe.Status)

	// the swipe on the foreign listing stays pending
	swipe, err = repo.Get(ctx, 42, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, swipe.Status)

	// a second reject finds nothing pending anymore
	rejected, err = repo.Reject(ctx, hostID, 42)
	require.NoError(t, err)
	assert.Empty(t, rejected)
}

func TestApprovedUserIDsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	mustLike(t, repo, 1, 9)
	mustLike(t, repo, 2, 9)

	_, err := repo.Approve(ctx, 1, 9)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Approve(ctx, 2, 9)
	require.NoError(t, err)

	ids, err := repo.ApprovedUserIDs(ctx, 9)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, uint64(2), ids[0])
}

func TestCountInterested(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewSwipeRepository(gdb)

	mustLike(t, repo, 1, 9) // pending
	mustLike(t, repo, 2, 9)
	_, err := repo.Approve(ctx, 2, 9) // approved
	require.NoError(t, err)
	mustLike(t, repo, 3, 9)
	_, err = repo.MarkWithdrawn(ctx, 3, 9) // withdrawn, excluded
	require.NoError(t, err)
	mustDislike(t, repo, 4, 9) // hold only, excluded

	count, err := repo.CountInterested(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
