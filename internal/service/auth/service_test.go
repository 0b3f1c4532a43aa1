package auth_test

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
	"github.com/subletme/sublet-api/internal/config"
	"github.com/subletme/sublet-api/internal/db"
	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/repository"
	"github.com/subletme/sublet-api/internal/service/auth"
)

func setupService(t *testing.T) (*auth.Service, *gorm.DB) {
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

	cfg := config.New()
	cfg.JWT.Secret = "test-secret"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(dbase, nil, nil, logger)
	return auth.NewService(appCtx, cfg), dbase
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	user, token, err := svc.Register(ctx, "Rita@Example.com", "supersecret", "Rita", "Renter")
	require.NoError(t, err)
	assert.Equal(t, "rita@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "supersecret", user.PasswordHash)

	// the issued token resolves back to the user
	id, err := svc.UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, token, err = svc.Login(ctx, "rita@example.com", "supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Register(ctx, "not-an-email", "supersecret", "A", "B")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))

	_, _, err = svc.Register(ctx, "a@b.com", "short", "A", "B")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))

	_, _, err = svc.Register(ctx, "a@b.com", "supersecret", "A", "B")
	require.NoError(t, err)

	// taken email
	_, _, err = svc.Register(ctx, "a@b.com", "supersecret", "A", "B")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, _, err := svc.Register(ctx, "a@b.com", "supersecret", "A", "B")
	require.NoError(t, err)

	// wrong password and unknown email fail identically
	_, _, wrongPass := svc.Login(ctx, "a@b.com", "wrong-password")
	_, _, unknown := svc.Login(ctx, "nobody@b.com", "supersecret")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(wrongPass))
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestParseTokenRejectsForgery(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, token, err := svc.Register(ctx, "a@b.com", "supersecret", "A", "B")
	require.NoError(t, err)

	_, err = svc.ParseToken(token + "tampered")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))

	_, err = svc.ParseToken("not-a-token")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))
}

func TestSocialFindOrCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	first, _, err := svc.FindOrCreateUser(ctx, "g@example.com", "Gus", "Google", "google")
	require.NoError(t, err)

	// same email reuses the account, whatever the provider
	again, token, err := svc.FindOrCreateUser(ctx, "g@example.com", "", "", "apple")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterDeviceUpsert(t *testing.T) {
	ctx := context.Background()
	svc, gdb := setupService(t)

	user, _, err := svc.Register(ctx, "a@b.com", "supersecret", "A", "B")
	require.NoError(t, err)

	err = svc.RegisterDevice(ctx, user.ID, "", "android")
	assert.Equal(t, svcErr.CodeValidation, svcErr.CodeOf(err))

	require.NoError(t, svc.RegisterDevice(ctx, user.ID, "fcm-token-1", "android"))
	require.NoError(t, svc.RegisterDevice(ctx, user.ID, "fcm-token-1", "android 14"))
	require.NoError(t, svc.RegisterDevice(ctx, user.ID, "fcm-token-2", "ios"))

	tokens, err := repository.NewUserRepository(gdb).DeviceTokens(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	err = svc.RegisterDevice(ctx, 9999, "fcm-token-3", "ios")
	assert.Equal(t, svcErr.CodeNotFound, svcErr.CodeOf(err))
}
