package property_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/repository"
	"github.com/subletme/sublet-api/internal/service/property"
)

type fixture struct {
	svc    *property.Service
	gdb    *gorm.DB
	host   db.User
	renter db.User
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	f := &fixture{gdb: dbase}
	f.host = db.User{Email: "host@test.com", FirstName: "Hanna", Provider: "email", Active: true}
	f.renter = db.User{Email: "renter@test.com", FirstName: "Rita", Provider: "email", Active: true}
	require.NoError(t, dbase.Create(&f.host).Error)
	require.NoError(t, dbase.Create(&f.renter).Error)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, nil, nil, logger)
	f.svc = property.NewService(appCtx)
	return f
}

func (f *fixture) addProperty(t *testing.T, title string, createdAt time.Time) db.Property {
	t.Helper()
	p := db.Property{HostID: f.host.ID, Title: title}
	require.NoError(t, f.gdb.Create(&p).Error)
	require.NoError(t, f.gdb.Model(&p).Update("created_at", createdAt).Error)
	p.CreatedAt = createdAt
	return p
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

// TestFeedExcludesLiveSwipes checks the exclusion predicate: pending and
// approved swipes and unexpired dislike holds keep a listing out, rejected
// and withdrawn ones let it back in.
func TestFeedExcludesLiveSwipes(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	base := time.Now().UTC().Truncate(time.Millisecond)
	liked := f.addProperty(t, "liked", base.Add(-1*time.Hour))
	disliked := f.addProperty(t, "disliked", base.Add(-2*time.Hour))
	rejected := f.addProperty(t, "rejected", base.Add(-3*time.Hour))
	withdrawn := f.addProperty(t, "withdrawn", base.Add(-4*time.Hour))
	f.addProperty(t, "fresh", base.Add(-5*time.Hour))

	swipes := repository.NewSwipeRepository(f.gdb)
	mustLike(t, swipes, f.renter.ID, disliked.ID)
	mustDislike(t, swipes, f.renter.ID, disliked.ID)
	mustLike(t, swipes, f.renter.ID, rejected.ID)
	rejectedIDs, err := swipes.Reject(ctx, f.host.ID, f.renter.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rejectedIDs)
	mustLike(t, swipes, f.renter.ID, withdrawn.ID)
	ok, err := swipes.MarkWithdrawn(ctx, f.renter.ID, withdrawn.ID)
	require.NoError(t, err)
	require.True(t, ok)
	mustLike(t, swipes, f.renter.ID, liked.ID)

	properties, next, err := f.svc.Feed(ctx, f.renter.ID, nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)

	// rejected and withdrawn re-surface; pending and the dislike hold stay out
	titles := make([]string, 0, len(properties))
	for _, p := range properties {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"rejected", "withdrawn", "fresh"}, titles)

	// the host never sees their own listings
	properties, _, err = f.svc.Feed(ctx, f.host.ID, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, properties)
}

// TestFeedDislikeHoldExpires checks that the hold is time-bound: a disliked
// listing stays out only until hide_until passes, then re-enters the feed.
func TestFeedDislikeHoldExpires(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	held := f.addProperty(t, "held", time.Now().UTC().Add(-time.Hour))

	swipes := repository.NewSwipeRepository(f.gdb)
	mustDislike(t, swipes, f.renter.ID, held.ID)

	properties, _, err := f.svc.Feed(ctx, f.renter.ID, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, properties)

	// backdate the hold past expiry
	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, f.gdb.Model(&db.PropertySwipe{}).
		Where("user_id = ? AND property_id = ?", f.renter.ID, held.ID).
		Update("hide_until", expired).Error)

	properties, _, err = f.svc.Feed(ctx, f.renter.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "held", properties[0].Title)
}

// TestFeedPagination walks two pages through the cursor token and checks the
// newest-first ordering.
func TestFeedPagination(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		f.addProperty(t, fmt.Sprintf("p%d", i), base.Add(-time.Duration(i)*time.Hour))
	}

	first, next, err := f.svc.Feed(ctx, f.renter.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	require.NotNil(t, next)
	assert.Equal(t, "p0", first[0].Title)

	second, next, err := f.svc.Feed(ctx, f.renter.ID, next, 3)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Nil(t, next)
	assert.Equal(t, "p3", second[0].Title)
	assert.Equal(t, "p4", second[1].Title)
}

func TestMyRequestsFilter(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	base := time.Now().UTC()
	a := f.addProperty(t, "a", base.Add(-1*time.Hour))
	b := f.addProperty(t, "b", base.Add(-2*time.Hour))
	c := f.addProperty(t, "c", base.Add(-3*time.Hour))

	swipes := repository.NewSwipeRepository(f.gdb)
	mustLike(t, swipes, f.renter.ID, a.ID)
	mustLike(t, swipes, f.renter.ID, b.ID)
	_, err := swipes.Approve(ctx, f.renter.ID, b.ID)
	require.NoError(t, err)
	// dislikes carry no workflow state and stay out of the requests view
	mustDislike(t, swipes, f.renter.ID, c.ID)

	rows, err := f.svc.MyRequests(ctx, f.renter.ID, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	approved := db.StatusApproved
	rows, err = f.svc.MyRequests(ctx, f.renter.ID, &approved)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].PropertyID)
	assert.Equal(t, db.StatusApproved, rows[0].Status)
}

// TestHostInbox checks the inbox projection: pending and approved swipes on
// the host's listings, with the conversation id attached only once approved.
func TestHostInbox(t *testing.T) {
	ctx := context.Background()
	f := setupService(t)

	other := db.User{Email: "second@test.com", FirstName: "Nils", Provider: "email", Active: true}
	require.NoError(t, f.gdb.Create(&other).Error)

	p := f.addProperty(t, "loft", time.Now().UTC())

	swipes := repository.NewSwipeRepository(f.gdb)
	mustLike(t, swipes, f.renter.ID, p.ID)
	mustLike(t, swipes, other.ID, p.ID)
	_, err := swipes.Approve(ctx, f.renter.ID, p.ID)
	require.NoError(t, err)

	conv, err := repository.NewConversationRepository(f.gdb).Create(ctx, p.ID, f.renter.ID)
	require.NoError(t, err)

	rows, err := f.svc.HostInbox(ctx, f.host.ID, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byUser := map[uint64]repository.SwipeRequest{}
	for _, row := range rows {
		byUser[row.UserID] = row
	}
	require.NotNil(t, byUser[f.renter.ID].ConversationID)
	assert.Equal(t, conv.ID, *byUser[f.renter.ID].ConversationID)
	assert.Nil(t, byUser[other.ID].ConversationID)

	pending := db.StatusPending
	rows, err = f.svc.HostInbox(ctx, f.host.ID, &pending, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, other.ID, rows[0].UserID)

	// nobody swiped on the renter's (nonexistent) listings
	rows, err = f.svc.HostInbox(ctx, f.renter.ID, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
