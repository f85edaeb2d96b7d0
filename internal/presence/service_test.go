package presence_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buildwise/buildwise/backend-go/internal/db"
	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/presence"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

func newTestService(t *testing.T) (*presence.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return presence.NewService(gdb, 5*time.Minute), gdb
}

func createUser(t *testing.T, gdb *gorm.DB, name string) domain.User {
	t.Helper()
	u := domain.User{
		ID:          typeid.NewUserID(),
		Email:       strings.ToLower(name) + "@example.com",
		Password:    "x",
		DisplayName: name,
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func TestCreateSessionSupersedesPrevious(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	user := createUser(t, gdb, "Alicia")

	first, err := svc.CreateSession(ctx, "canvas_1", user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateCursor(ctx, first.SessionID, 40, 60))

	second, err := svc.CreateSession(ctx, "canvas_1", user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	// Only the newest session stays active, and it starts with a fresh cursor.
	var active []domain.CanvasSession
	require.NoError(t, gdb.Where("canvas_id = ? AND user_id = ? AND is_active = ?", "canvas_1", user.ID, true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, second.SessionID, active[0].SessionID)
	assert.Equal(t, 0.0, active[0].CursorX)
	assert.Equal(t, 0.0, active[0].CursorY)

	users, err := svc.ActiveUsers(ctx, "canvas_1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].UserID)
	assert.Equal(t, "Alicia", users[0].DisplayName)
}

func TestUpdateCursor(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	user := createUser(t, gdb, "Bern")

	sess, err := svc.CreateSession(ctx, "canvas_1", user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateCursor(ctx, sess.SessionID, 12.5, -3))

	users, err := svc.ActiveUsers(ctx, "canvas_1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 12.5, users[0].X)
	assert.Equal(t, -3.0, users[0].Y)

	// An unknown session id is silently ignored.
	assert.NoError(t, svc.UpdateCursor(ctx, "sess_missing", 1, 1))
}

func TestDeactivate(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	user := createUser(t, gdb, "Cleo")

	sess, err := svc.CreateSession(ctx, "canvas_1", user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, sess.SessionID))

	users, err := svc.ActiveUsers(ctx, "canvas_1")
	require.NoError(t, err)
	assert.Empty(t, users)

	err = svc.Deactivate(ctx, "sess_missing")
	assert.ErrorIs(t, err, presence.ErrSessionNotFound)
}

func TestActivityWindow(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	stale := createUser(t, gdb, "Dora")
	fresh := createUser(t, gdb, "Elio")

	staleSess, err := svc.CreateSession(ctx, "canvas_1", stale.ID)
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "canvas_1", fresh.ID)
	require.NoError(t, err)

	// Age one session past the five minute window. It stays active in the
	// table but drops out of every presence read.
	expired := time.Now().Add(-6 * time.Minute)
	require.NoError(t, gdb.Model(&domain.CanvasSession{}).
		Where("session_id = ?", staleSess.SessionID).
		Update("last_activity", expired).Error)

	users, err := svc.ActiveUsers(ctx, "canvas_1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, fresh.ID, users[0].UserID)

	count, err := svc.CountActive(ctx, "canvas_1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Cursor movement revives the aged session.
	require.NoError(t, svc.UpdateCursor(ctx, staleSess.SessionID, 5, 5))
	count, err = svc.CountActive(ctx, "canvas_1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestActiveUsersScopedPerCanvas(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()
	user := createUser(t, gdb, "Frida")

	_, err := svc.CreateSession(ctx, "canvas_1", user.ID)
	require.NoError(t, err)

	users, err := svc.ActiveUsers(ctx, "canvas_2")
	require.NoError(t, err)
	assert.Empty(t, users)
}
