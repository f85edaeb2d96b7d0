package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildwise/buildwise/backend-go/internal/auth"
	"github.com/buildwise/buildwise/backend-go/internal/db"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

func newTestService(t *testing.T) *auth.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return auth.NewService(gdb, "test-secret")
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "grace@example.com", "hunter22", "Grace")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NoError(t, typeid.Validate(res.User.ID, typeid.PrefixUser))
	assert.NotEqual(t, "hunter22", res.User.Password, "password must be stored hashed")

	userID, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	login, err := svc.Login(ctx, "grace@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dup@example.com", "pw1pw1pw1", "First")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "dup@example.com", "pw2pw2pw2", "Second")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "mallory@example.com", "pw1pw1pw1", "Mallory")
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token + "x")
	assert.Error(t, err)

	other := auth.NewService(nil, "different-secret")
	_, err = other.ValidateToken(res.Token)
	assert.Error(t, err)
}

func TestGetUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, "heidi@example.com", "pw1pw1pw1", "Heidi")
	require.NoError(t, err)

	user, err := svc.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heidi", user.DisplayName)

	_, err = svc.GetUser(ctx, "user_missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}
