package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/photobot/internal/disk"
	"github.com/m3rciful/photobot/internal/staging"
)

type fakeDisk struct {
	existing  map[string]bool
	mkdirs    []string
	uploads   map[string][]byte
	uploadErr error
	download  []byte
	dlErr     error
}

func newFakeDisk() *fakeDisk {
	return &fakeDisk{
		existing: map[string]bool{},
		uploads:  map[string][]byte{},
	}
}

func (d *fakeDisk) Exists(_ context.Context, path string) (bool, error) {
	return d.existing[path], nil
}

func (d *fakeDisk) Mkdir(_ context.Context, path string) error {
	d.mkdirs = append(d.mkdirs, path)
	d.existing[path] = true
	return nil
}

func (d *fakeDisk) Upload(_ context.Context, localPath, remotePath string) error {
	if d.uploadErr != nil {
		return d.uploadErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	d.uploads[remotePath] = data
	return nil
}

func (d *fakeDisk) Download(_ context.Context, _, localPath string) error {
	if d.dlErr != nil {
		return d.dlErr
	}
	return os.WriteFile(localPath, d.download, 0o644)
}

type recorded struct {
	chatID   int64
	category string
	filename string
	path     string
}

func fixedClock() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, d *fakeDisk, rec Recorder) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	store, err := staging.NewStore(root)
	require.NoError(t, err)
	svc := NewService(Options{
		Disk:     d,
		Staging:  store,
		Recorder: rec,
		Root:     "disk:",
		Now:      fixedClock,
	})
	return svc, root
}

func fetchBytes(data []byte) func(context.Context, string) error {
	return func(_ context.Context, dst string) error {
		return os.WriteFile(dst, data, 0o644)
	}
}

func TestSaveHappyPath(t *testing.T) {
	d := newFakeDisk()
	var got []recorded
	rec := RecorderFunc(func(_ context.Context, chatID int64, category, filename, path string) error {
		got = append(got, recorded{chatID, category, filename, path})
		return nil
	})
	svc, stagingRoot := newTestService(t, d, rec)

	res, err := svc.Save(context.Background(), SaveRequest{
		ChatID:   42,
		Category: "Badges",
		Name:     "badge007",
		Fetch:    fetchBytes([]byte("jpeg-bytes")),
	})
	require.NoError(t, err)

	assert.Equal(t, "badge007.jpg", res.Filename)
	assert.Equal(t, "2026-08-31", res.Date)
	assert.Equal(t, "disk:/Badges/2026-08-31", res.RemoteDir)
	assert.Equal(t, "disk:/Badges/2026-08-31/badge007.jpg", res.RemotePath)

	assert.Equal(t, []byte("jpeg-bytes"), d.uploads[res.RemotePath])
	assert.Equal(t, []string{"disk:/Badges", "disk:/Badges/2026-08-31"}, d.mkdirs)

	require.Len(t, got, 1)
	assert.Equal(t, recorded{42, "Badges", "badge007.jpg", res.RemotePath}, got[0])

	// Staged copy must be gone after a successful upload.
	_, err = os.Stat(filepath.Join(stagingRoot, "2026-08-31", "badge007.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveSkipsMkdirForExistingDirs(t *testing.T) {
	d := newFakeDisk()
	d.existing["disk:/Badges"] = true
	d.existing["disk:/Badges/2026-08-31"] = true
	svc, _ := newTestService(t, d, nil)

	_, err := svc.Save(context.Background(), SaveRequest{
		Category: "Badges",
		Name:     "badge",
		Fetch:    fetchBytes([]byte("x")),
	})
	require.NoError(t, err)
	assert.Empty(t, d.mkdirs)
}

func TestSaveNameCollision(t *testing.T) {
	d := newFakeDisk()
	d.uploadErr = disk.ErrExists
	svc, stagingRoot := newTestService(t, d, nil)

	_, err := svc.Save(context.Background(), SaveRequest{
		Category: "Badges",
		Name:     "badge007",
		Fetch:    fetchBytes([]byte("x")),
	})
	require.ErrorIs(t, err, disk.ErrExists)

	// The staged copy is cleaned up on failure too.
	_, err = os.Stat(filepath.Join(stagingRoot, "2026-08-31", "badge007.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveFetchFailure(t *testing.T) {
	d := newFakeDisk()
	svc, _ := newTestService(t, d, nil)

	boom := errors.New("telegram down")
	_, err := svc.Save(context.Background(), SaveRequest{
		Category: "Badges",
		Name:     "badge",
		Fetch:    func(context.Context, string) error { return boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, d.uploads)
}

func TestSaveBadName(t *testing.T) {
	svc, _ := newTestService(t, newFakeDisk(), nil)

	for _, name := range []string{"", "   ", "\x00\x01", "///", ".."} {
		_, err := svc.Save(context.Background(), SaveRequest{
			Category: "Badges",
			Name:     name,
			Fetch:    fetchBytes([]byte("x")),
		})
		assert.ErrorIsf(t, err, ErrBadName, "name %q", name)
	}
}

func TestSaveRecorderFailureDoesNotFailSave(t *testing.T) {
	d := newFakeDisk()
	rec := RecorderFunc(func(context.Context, int64, string, string, string) error {
		return errors.New("db down")
	})
	svc, _ := newTestService(t, d, rec)

	_, err := svc.Save(context.Background(), SaveRequest{
		Category: "Badges",
		Name:     "badge",
		Fetch:    fetchBytes([]byte("x")),
	})
	require.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"badge007", "badge007.jpg"},
		{"  badge 007  ", "badge 007.jpg"},
		{"a/b\\c", "abc.jpg"},
		{"line\nbreak", "linebreak.jpg"},
	}
	for _, tc := range cases {
		got, err := SanitizeName(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestFetchPreview(t *testing.T) {
	d := newFakeDisk()
	d.download = []byte("jpeg-bytes")
	svc, _ := newTestService(t, d, nil)

	f, err := svc.FetchPreview(context.Background(), "disk:/Badges/2026-08-31/badge.jpg")
	require.NoError(t, err)
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	require.NoError(t, f.Remove())
}

func TestFetchPreviewFailure(t *testing.T) {
	d := newFakeDisk()
	d.dlErr = disk.ErrNotFound
	svc, _ := newTestService(t, d, nil)

	_, err := svc.FetchPreview(context.Background(), "disk:/Badges/x.jpg")
	require.ErrorIs(t, err, disk.ErrNotFound)
}

func TestPresentationMode(t *testing.T) {
	assert.Equal(t, ModeEmpty, PresentationMode(0, 10))
	assert.Equal(t, ModePreview, PresentationMode(1, 10))
	assert.Equal(t, ModePreview, PresentationMode(10, 10))
	assert.Equal(t, ModeListing, PresentationMode(11, 10))
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "📄 badge.jpg\n📅 2026-08-31", Caption("badge.jpg", "2026-08-31"))
	assert.Equal(t, "📄 badge.jpg (📅 2026-08-31)", ListingLine("badge.jpg", "2026-08-31"))
}
