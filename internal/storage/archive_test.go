package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jjudge-oj/workbench/internal/identity"
	"github.com/jjudge-oj/workbench/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	closed  bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) EnsureBucket(ctx context.Context) error { return nil }

func (m *memoryStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	return nil
}

func (m *memoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *memoryStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, body := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) Bucket() string { return "test" }

func (m *memoryStorage) Close() error {
	m.closed = true
	return nil
}

func TestArchivePutAndHistory(t *testing.T) {
	store := newMemoryStorage()
	archive := NewArchive(store, nil)
	base := time.Unix(1700000000, 0)
	tick := 0
	archive.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	ctx := context.Background()

	first := types.Solution{UserID: "u1", ProblemID: "p1", ContestID: "c1", Code: "print(1)", Language: types.LanguagePython}
	key, err := archive.Put(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "solutions/u1/c1-p1/1700000001000000000.py", key)

	second := first
	second.Code = "console.log(2)"
	second.Language = types.LanguageJavaScript
	_, err = archive.Put(ctx, second)
	require.NoError(t, err)

	_, err = archive.Put(ctx, types.Solution{UserID: "u1", ProblemID: "p1", Code: "x"})
	require.NoError(t, err)

	history, err := archive.History(ctx, "u1", identity.Resolve("c1-p1"))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.LanguageJavaScript, history[0].Language)
	assert.Equal(t, types.LanguagePython, history[1].Language)
	assert.True(t, history[0].SubmittedAt.After(history[1].SubmittedAt))

	code, err := archive.Read(ctx, history[1].Key)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", code)

	standalone, err := archive.History(ctx, "u1", identity.Resolve("p1"))
	require.NoError(t, err)
	require.Len(t, standalone, 1)
	assert.Equal(t, types.Language(""), standalone[0].Language)
}

func TestArchiveReadMissing(t *testing.T) {
	archive := NewArchive(newMemoryStorage(), nil)
	_, err := archive.Read(context.Background(), "solutions/none")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNilArchiveIsDisabled(t *testing.T) {
	var archive *Archive
	ctx := context.Background()

	key, err := archive.Put(ctx, types.Solution{UserID: "u1", ProblemID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, key)

	history, err := archive.History(ctx, "u1", identity.Resolve("p1"))
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NoError(t, archive.Close())
}

func TestParseSnapshotSkipsForeignKeys(t *testing.T) {
	_, ok := parseSnapshot(ObjectInfo{Key: "solutions/u1/p1/readme"})
	assert.False(t, ok)
	_, ok = parseSnapshot(ObjectInfo{Key: "solutions/u1/p1/abc.py"})
	assert.False(t, ok)
}
