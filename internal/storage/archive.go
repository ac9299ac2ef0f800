package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jjudge-oj/workbench/config"
	"github.com/jjudge-oj/workbench/types"
)

const archivePrefix = "solutions"

// Snapshot is one archived submission.
type Snapshot struct {
	Key         string         `json:"key"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Language    types.Language `json:"language"`
	Size        int64          `json:"size"`
}

// Archive writes a copy of every submitted solution under
// solutions/{userId}/{problem}/{unixnano}.{ext}. A nil *Archive accepts
// and discards everything.
type Archive struct {
	store  ObjectStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewArchive wraps an object store.
func NewArchive(store ObjectStorage, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{store: store, logger: logger, now: time.Now}
}

// Open connects the backend selected by cfg.StorageBackend and makes sure
// its bucket exists. It returns nil, nil when archiving is disabled.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Archive, error) {
	var (
		store ObjectStorage
		err   error
	)
	switch cfg.StorageBackend {
	case "", "none":
		return nil, nil
	case "minio":
		store, err = NewMinioClient(cfg.Minio)
	case "gcs":
		store, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.StorageBackend, err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", store.Bucket(), err)
	}
	return NewArchive(store, logger), nil
}

// Put stores the solution's code and returns the object key.
func (a *Archive) Put(ctx context.Context, solution types.Solution) (string, error) {
	if a == nil {
		return "", nil
	}
	lang := solution.Language
	key := path.Join(
		historyPrefix(solution.UserID, solution.Identity()),
		strconv.FormatInt(a.now().UnixNano(), 10)+"."+lang.Info().Extension,
	)
	body := []byte(solution.Code)
	if err := a.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "text/plain; charset=utf-8"); err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	a.logger.Debug("solution archived", "key", key, "bucket", a.store.Bucket())
	return key, nil
}

// History lists the archived submissions of a user for a problem, newest
// first.
func (a *Archive) History(ctx context.Context, userID string, id types.ProblemIdentity) ([]Snapshot, error) {
	if a == nil {
		return nil, nil
	}
	objects, err := a.store.List(ctx, historyPrefix(userID, id)+"/")
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(objects))
	for _, obj := range objects {
		snap, ok := parseSnapshot(obj)
		if !ok {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SubmittedAt.After(snapshots[j].SubmittedAt)
	})
	return snapshots, nil
}

// Read returns the code stored under key.
func (a *Archive) Read(ctx context.Context, key string) (string, error) {
	if a == nil {
		return "", ErrObjectNotFound
	}
	rc, err := a.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Close releases the backend.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.store.Close()
}

func historyPrefix(userID string, id types.ProblemIdentity) string {
	return path.Join(archivePrefix, userID, id.String())
}

func parseSnapshot(obj ObjectInfo) (Snapshot, bool) {
	name := path.Base(obj.Key)
	stamp, ext, ok := strings.Cut(name, ".")
	if !ok {
		return Snapshot{}, false
	}
	nanos, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return Snapshot{}, false
	}
	return Snapshot{
		Key:         obj.Key,
		SubmittedAt: time.Unix(0, nanos).UTC(),
		Language:    languageOfExtension(ext),
		Size:        obj.Size,
	}, true
}

func languageOfExtension(ext string) types.Language {
	for _, lang := range types.Languages() {
		if lang.Info().Extension == ext {
			return lang
		}
	}
	return ""
}
