package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "sessions.toml"))
}

func TestNormalizeServer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"netxms.example.com", "https://netxms.example.com"},
		{"NetXMS.Example.COM:8443", "https://netxms.example.com:8443"},
		{"http://netxms.example.com/", "http://netxms.example.com"},
		{"HTTPS://NetXMS.Example.com:4703/api/", "https://netxms.example.com:4703"},
		{"  netxms.example.com  ", "https://netxms.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeServer(tt.in), "input %q", tt.in)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("netxms.example.com", "tok-1", time.Time{}))

	rec, err := s.Load("https://NETXMS.example.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "tok-1", rec.Token)
	assert.Empty(t, rec.Expires)
	assert.NotEmpty(t, rec.SavedAt)
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Load("nowhere.example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestExpiredRecordPurgedOnLoad(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("a.example.com", "stale", time.Now().Add(-time.Hour)))
	require.NoError(t, s.Save("b.example.com", "fresh", time.Now().Add(time.Hour)))

	rec, err := s.Load("a.example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// expired record is gone from disk, the fresh one survives
	all, err := s.All()
	require.NoError(t, err)
	assert.NotContains(t, all, "https://a.example.com")
	assert.Contains(t, all, "https://b.example.com")

	rec, err = s.Load("b.example.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "fresh", rec.Token)
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("x.example.com", "old", time.Time{}))
	require.NoError(t, s.Save("x.example.com", "new", time.Time{}))

	rec, err := s.Load("x.example.com")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "new", rec.Token)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("x.example.com", "tok", time.Time{}))
	require.NoError(t, s.Delete("x.example.com"))

	rec, err := s.Load("x.example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// deleting an absent record is not an error
	require.NoError(t, s.Delete("x.example.com"))
}

func TestFilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deep", "sessions.toml")
	s := New(path)

	require.NoError(t, s.Save("x.example.com", "tok", time.Time{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}
