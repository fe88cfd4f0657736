// Package archive implements the save pipeline: a photograph fetched
// from Telegram is staged locally, uploaded into the dated remote
// layout {root}/{category}/{YYYY-MM-DD}/{name}.jpg, and the staged copy
// is removed whatever the outcome.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/m3rciful/photobot/core/logger"
	"github.com/m3rciful/photobot/internal/disk"
	"github.com/m3rciful/photobot/internal/staging"
)

// Disk is the remote gateway surface the service depends on.
type Disk interface {
	Exists(ctx context.Context, path string) (bool, error)
	Mkdir(ctx context.Context, path string) error
	Upload(ctx context.Context, localPath, remotePath string) error
	Download(ctx context.Context, remotePath, localPath string) error
}

// Recorder persists a completed save into the journal. A Recorder
// failure never fails the save itself.
type Recorder interface {
	Record(ctx context.Context, chatID int64, category, filename, remotePath string) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, chatID int64, category, filename, remotePath string) error

func (f RecorderFunc) Record(ctx context.Context, chatID int64, category, filename, remotePath string) error {
	return f(ctx, chatID, category, filename, remotePath)
}

// ErrBadName indicates the user-provided name is unusable after
// sanitization.
var ErrBadName = errors.New("archive: unusable file name")

// Options configure a Service.
type Options struct {
	Disk    Disk
	Staging *staging.Store
	// Recorder is optional; nil disables journaling.
	Recorder Recorder
	// Root is the remote prefix everything lives under, e.g. "disk:".
	Root string
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Service archives photographs to the remote disk.
type Service struct {
	disk    Disk
	staging *staging.Store
	record  Recorder
	root    string
	now     func() time.Time
}

// NewService wires a Service from its dependencies.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		disk:    opts.Disk,
		staging: opts.Staging,
		record:  opts.Recorder,
		root:    strings.TrimRight(opts.Root, "/"),
		now:     now,
	}
}

// SaveRequest carries everything needed to archive one photograph.
// Fetch writes the photo bytes into the given local path; it is a
// closure because downloading from Telegram needs the per-update bot
// handle.
type SaveRequest struct {
	ChatID   int64
	Category string
	Name     string
	Fetch    func(ctx context.Context, dst string) error
}

// SaveResult reports where the photograph ended up.
type SaveResult struct {
	Filename   string
	RemoteDir  string
	RemotePath string
	Date       string
}

// Save runs the full pipeline. A remote name collision surfaces as
// disk.ErrExists so the dialog can ask for another name; the staged
// local copy is removed on every path out of here.
func (s *Service) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	start := time.Now()

	filename, err := SanitizeName(req.Name)
	if err != nil {
		return SaveResult{}, err
	}

	date := s.now().Format("2006-01-02")
	remoteDir := s.root + "/" + req.Category + "/" + date
	remotePath := remoteDir + "/" + filename

	if err := s.ensureDir(ctx, s.root+"/"+req.Category); err != nil {
		return SaveResult{}, err
	}
	if err := s.ensureDir(ctx, remoteDir); err != nil {
		return SaveResult{}, err
	}

	staged, err := s.staging.ForSave(date, filename)
	if err != nil {
		return SaveResult{}, err
	}
	defer func() {
		if rmErr := staged.Remove(); rmErr != nil {
			logger.Warn(ctx, "archive", "staging.remove_failed",
				slog.String("error", rmErr.Error()),
			)
		}
	}()

	if err := req.Fetch(ctx, staged.Path()); err != nil {
		return SaveResult{}, fmt.Errorf("archive: fetch photo: %w", err)
	}
	if err := s.disk.Upload(ctx, staged.Path(), remotePath); err != nil {
		return SaveResult{}, err
	}

	if s.record != nil {
		if err := s.record.Record(ctx, req.ChatID, req.Category, filename, remotePath); err != nil {
			logger.Warn(ctx, "archive", "journal.record_failed",
				slog.String("path", remotePath),
				slog.String("error", err.Error()),
			)
		}
	}

	logger.Info(ctx, "archive", "save.done",
		slog.String("status", "ok"),
		slog.String("category", req.Category),
		slog.String("filename", filename),
		slog.String("path", remotePath),
		slog.Duration("duration", logger.Took(start)),
	)

	return SaveResult{
		Filename:   filename,
		RemoteDir:  remoteDir,
		RemotePath: remotePath,
		Date:       date,
	}, nil
}

// FetchPreview downloads a remote file into a uniquely named staged
// copy. The caller owns the returned file and must Remove it after
// sending.
func (s *Service) FetchPreview(ctx context.Context, remotePath string) (*staging.File, error) {
	f := s.staging.ForPreview()
	if err := s.disk.Download(ctx, remotePath, f.Path()); err != nil {
		_ = f.Remove()
		return nil, err
	}
	return f, nil
}

func (s *Service) ensureDir(ctx context.Context, path string) error {
	ok, err := s.disk.Exists(ctx, path)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	err = s.disk.Mkdir(ctx, path)
	// Someone else may have created it between the check and the call.
	if err != nil && !errors.Is(err, disk.ErrExists) {
		return err
	}
	return nil
}

// SanitizeName turns user text into a safe archive filename. Control
// runes and path separators are dropped, surrounding space trimmed, and
// the ".jpg" extension appended.
func SanitizeName(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "", ErrBadName
	}
	return cleaned + ".jpg", nil
}
