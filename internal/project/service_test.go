package project_test

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

	"github.com/buildwise/buildwise/backend-go/internal/db"
	"github.com/buildwise/buildwise/backend-go/internal/project"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

func newTestService(t *testing.T) *project.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return project.NewService(gdb)
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := typeid.NewUserID()

	created, err := svc.Create(ctx, "Harbor Renovation", owner)
	require.NoError(t, err)
	require.NoError(t, typeid.Validate(created.ID, typeid.PrefixProject))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Renovation", got.Name)
	assert.Equal(t, owner, got.OwnerID)

	_, err = svc.Get(ctx, "proj_missing")
	assert.ErrorIs(t, err, project.ErrNotFound)
}

func TestListScopedToOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	alice := typeid.NewUserID()
	bob := typeid.NewUserID()

	_, err := svc.Create(ctx, "Alpha", alice)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Beta", alice)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Gamma", bob)
	require.NoError(t, err)

	mine, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCheckOwner(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := typeid.NewUserID()

	p, err := svc.Create(ctx, "Delta", owner)
	require.NoError(t, err)

	assert.NoError(t, svc.CheckOwner(ctx, p.ID, owner))
	assert.ErrorIs(t, svc.CheckOwner(ctx, p.ID, typeid.NewUserID()), project.ErrForbidden)
	assert.ErrorIs(t, svc.CheckOwner(ctx, "proj_missing", owner), project.ErrNotFound)
}
