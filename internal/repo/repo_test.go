package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/lockstep/internal/errors"
	"github.com/Iron-Ham/lockstep/internal/testutil"
)

func writeConfig(t *testing.T, toplevel, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(toplevel, ConfigFileName), []byte(content), 0644)
	require.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
store_url: https://example.com/ledger
store_headers:
  X-Access-Key: $LEDGER_KEY
tracked_extensions: [fbx, png]
track_uncommitted: true
modify_permissions: true
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ledger", cfg.StoreURL)
	assert.Equal(t, "$LEDGER_KEY", cfg.StoreHeaders["X-Access-Key"])
	assert.Equal(t, DefaultPullThreshold, cfg.PullThreshold)
	assert.Equal(t, []string{"fbx", "png"}, cfg.TrackedExtensions)
	assert.True(t, cfg.TrackUncommitted)
	assert.True(t, cfg.ModifyPermissions)
	assert.False(t, cfg.TrackBinaries)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrRepositoryNotSetup)
}

func TestLoadConfig_NoStoreURL(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "pull_threshold: 30\n")

	_, err := LoadConfig(dir)
	assert.ErrorIs(t, err, errors.ErrInvalidStoreConfig)
}

func TestOpen(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, remoteDir := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\npull_threshold: 30\n")

	ctx := context.Background()
	repository, err := Open(ctx, repoDir, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, remoteDir, repository.RemoteURL())
	assert.Equal(t, 30, repository.Config().PullThreshold)

	identity := repository.Identity()
	assert.Equal(t, "Lockstep Test", identity.User)
	assert.NotEmpty(t, identity.Host)
	assert.Equal(t, repository.WorkingDir(), identity.Clone)

	state, err := repository.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", state.ActiveBranch)
}

func TestOpen_NotSetup(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir := testutil.SetupTestRepo(t)
	_, err := Open(context.Background(), repoDir, nil, nil)
	assert.ErrorIs(t, err, errors.ErrRepositoryNotSetup)
}

func TestRepository_RelativePath(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\n")
	repository, err := Open(context.Background(), repoDir, nil, nil)
	require.NoError(t, err)

	rel, err := repository.RelativePath(filepath.Join(repoDir, "art", "model.fbx"))
	require.NoError(t, err)
	assert.Equal(t, "art/model.fbx", rel)

	rel, err = repository.RelativePath("art/model.fbx")
	require.NoError(t, err)
	assert.Equal(t, "art/model.fbx", rel)

	_, err = repository.RelativePath(filepath.Join(repoDir, "..", "elsewhere"))
	assert.Error(t, err)

	abs := repository.AbsolutePath("art/model.fbx")
	assert.Equal(t, filepath.Join(repoDir, "art", "model.fbx"), abs)
}

func TestRepository_Tracks(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\ntracked_extensions: [fbx, .png]\n")
	repository, err := Open(context.Background(), repoDir, nil, nil)
	require.NoError(t, err)

	assert.True(t, repository.Tracks("art/model.fbx"))
	assert.True(t, repository.Tracks("art/texture.PNG"))
	assert.False(t, repository.Tracks("README.md"))
}

func TestRepository_TracksBinaries(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\ntrack_binaries: true\n")
	repository, err := Open(context.Background(), repoDir, nil, nil)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(repoDir, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(repoDir, "notes.txt"), []byte("plain text\n"), 0644)
	require.NoError(t, err)

	assert.True(t, repository.Tracks("blob.bin"))
	assert.False(t, repository.Tracks("notes.txt"))
}

func TestRegistry_FindUnmanaged(t *testing.T) {
	testutil.SkipIfNoGit(t)

	registry := NewRegistry(nil, nil)
	ctx := context.Background()

	// Not a git repository at all.
	repository, err := registry.Find(ctx, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, repository)

	// A git repository that was never set up.
	repoDir := testutil.SetupTestRepo(t)
	repository, err = registry.Find(ctx, repoDir)
	require.NoError(t, err)
	assert.Nil(t, repository)
}

func TestRegistry_FindCaches(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\n")

	registry := NewRegistry(nil, nil)
	ctx := context.Background()

	first, err := registry.Find(ctx, repoDir)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := registry.Find(ctx, filepath.Join(repoDir, "art"))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistry_PullLimiter(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	writeConfig(t, repoDir, "store_url: https://example.com/ledger\npull_threshold: 1\n")

	registry := NewRegistry(nil, nil)
	repository, err := registry.Find(context.Background(), repoDir)
	require.NoError(t, err)
	require.NotNil(t, repository)

	assert.False(t, registry.PulledRecently(repository))
	registry.MarkPulled(repository)
	assert.True(t, registry.PulledRecently(repository))

	time.Sleep(1100 * time.Millisecond)
	assert.False(t, registry.PulledRecently(repository))
}

func TestSetup(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir, _ := testutil.SetupTestRepoWithRemote(t)
	ctx := context.Background()

	err := Setup(ctx, repoDir, nil, SetupOptions{
		StoreURL:          "https://example.com/ledger",
		TrackedExtensions: []string{"fbx"},
		ModifyPermissions: true,
		UpdateGitignore:   true,
		UpdateHooks:       true,
	})
	require.NoError(t, err)

	cfg, err := LoadConfig(repoDir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/ledger", cfg.StoreURL)
	assert.Equal(t, DefaultPullThreshold, cfg.PullThreshold)
	assert.True(t, cfg.ModifyPermissions)

	ignore, err := os.ReadFile(filepath.Join(repoDir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), DataDirName+"/")

	for _, hook := range []string{"post-commit", "post-checkout"} {
		info, err := os.Stat(filepath.Join(repoDir, ".git", "hooks", hook))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0100)
	}

	// Running setup twice does not duplicate the ignore entry.
	err = Setup(ctx, repoDir, nil, SetupOptions{
		StoreURL:        "https://example.com/ledger",
		UpdateGitignore: true,
	})
	require.NoError(t, err)
	ignore, err = os.ReadFile(filepath.Join(repoDir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(string(ignore), DataDirName+"/"))
}

func TestSetup_InvalidStoreURL(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repoDir := testutil.SetupTestRepo(t)
	err := Setup(context.Background(), repoDir, nil, SetupOptions{StoreURL: "not a url"})
	assert.ErrorIs(t, err, errors.ErrInvalidStoreConfig)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
