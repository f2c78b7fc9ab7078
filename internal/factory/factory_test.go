package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/gateway"
	"github.com/mcoot/communityportal/internal/guard"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
	filestorage "github.com/mcoot/communityportal/internal/storage/file"
	"github.com/mcoot/communityportal/internal/storage/memory"
	redisstorage "github.com/mcoot/communityportal/internal/storage/redis"
	"github.com/mcoot/communityportal/internal/stubapi"
	"github.com/mcoot/communityportal/internal/testutil"
)

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	_, ok := app.Storage.(*memory.Storage)
	assert.True(t, ok)
	assert.NotNil(t, app.Registry)
	assert.NotNil(t, app.HubManager)
	assert.Nil(t, app.LoginLimiter)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "mongo"})
	assert.Error(t, err)
}

func TestNewRedisRequiresConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	assert.ErrorContains(t, err, "RedisConfig")
}

func TestNewFileRequiresStateDir(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeFile})
	assert.ErrorContains(t, err, "StateDir")
}

func TestNewWithLoginRate(t *testing.T) {
	app, err := New(Config{LoginRatePerMinute: 5})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	assert.NotNil(t, app.LoginLimiter)
}

// Test: with file storage a login is written to the state directory and
// outlives the in-memory store
func TestFileStorageKeepsSessionsOnDisk(t *testing.T) {
	dir := t.TempDir()
	app, err := NewTestApp(WithStorage(storage.Combine(
		filestorage.New(dir),
		memory.New(clock.New(), 0),
	)))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	store := app.Registry.Get(ctx, "browser-1")
	result := gateway.New(app.Client, store, testutil.NopLogger()).Login(ctx, stubapi.MemberEmail, stubapi.MemberPassword)
	require.True(t, result.Success, result.Message)

	_, err = os.Stat(filepath.Join(dir, "browser-1.json"))
	require.NoError(t, err)

	app.Registry.Forget("browser-1")
	sess := app.Registry.Get(ctx, "browser-1").Session()
	assert.True(t, sess.IsAuthenticated())
	require.NotNil(t, sess.Identity)
	assert.Equal(t, "Jane Doe", sess.Identity.Name)
}

func TestNewFileStorageCachesContentInMemory(t *testing.T) {
	app, err := New(Config{StorageType: StorageTypeFile, StateDir: t.TempDir(), ContentTTL: time.Minute})
	require.NoError(t, err)
	defer func() { _ = app.Close() }()

	require.NoError(t, app.Storage.SaveContent(context.Background(), "news", []byte(`[]`)))
	data, err := app.Storage.GetContent(context.Background(), "news")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

// Test: instances sharing Redis see each other's logins and logouts
func TestRedisInstancesShareSessions(t *testing.T) {
	mini := miniredis.RunT(t)
	newInstance := func() *App {
		cfg := redisstorage.DefaultConfig()
		cfg.URL = "redis://" + mini.Addr()
		app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Close() })
		return app
	}
	a, b := newInstance(), newInstance()

	ctx := context.Background()
	admin := model.Identity{UserID: 1, Name: "Portal Admin", Role: "Admin"}
	require.NoError(t, a.Registry.Get(ctx, "browser-1").SetSession(ctx, "abc.def.ghi", admin))

	sess := b.Registry.Get(ctx, "browser-1").Session()
	assert.Equal(t, guard.Admit, guard.Evaluate(sess, guard.AdminOnly))

	require.NoError(t, a.Registry.Get(ctx, "browser-1").Clear(ctx))

	sess = b.Registry.Get(ctx, "browser-1").Session()
	assert.Equal(t, guard.RedirectLogin, guard.Evaluate(sess, guard.AdminOnly))
}
