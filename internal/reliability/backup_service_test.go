package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/folioworks/folio/internal/events"
	testutil "github.com/folioworks/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ObjectStore
type memoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newTestBackupService(t *testing.T) (*BackupService, *memoryStore, *testutil.MockEmitter) {
	t.Helper()
	store := newMemoryStore()
	emitter := testutil.NewMockEmitter()
	service := NewBackupService(store, testutil.NewTestDB(t), t.TempDir(), "backups/", emitter, zerolog.Nop())
	return service, store, emitter
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := make(map[string][]byte)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func TestCreateAndUploadBackup(t *testing.T) {
	service, store, emitter := newTestBackupService(t)
	service.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	info, err := service.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "backups/folio-backup-2025-02-03-040506.tar.gz", info.Key)
	assert.Equal(t, []string{info.Key}, store.keys())
	assert.Equal(t, int64(len(store.objects[info.Key])), info.SizeBytes)

	files := readArchive(t, store.objects[info.Key])
	require.Contains(t, files, "folio.db")
	require.Contains(t, files, metadataFilename)
	assert.True(t, bytes.HasPrefix(files["folio.db"], []byte("SQLite format 3")))

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFilename], &metadata))
	assert.Equal(t, "folio", metadata.Database.Name)
	assert.Equal(t, int64(len(files["folio.db"])), metadata.Database.SizeBytes)
	assert.True(t, strings.HasPrefix(metadata.Database.Checksum, "sha256:"))

	completed := emitter.OfType(events.BackupCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, info.Key, completed[0].Data.(*events.BackupCompletedData).Key)
}

func TestCreateAndUploadBackup_UploadFails(t *testing.T) {
	service, store, emitter := newTestBackupService(t)
	store.uploadErr = errors.New("bucket unreachable")

	_, err := service.CreateAndUploadBackup(context.Background())
	assert.Error(t, err)
	assert.Empty(t, emitter.OfType(events.BackupCompleted))
}

func TestListBackups(t *testing.T) {
	service, store, _ := newTestBackupService(t)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	store.objects["backups/folio-backup-2025-03-01-000000.tar.gz"] = []byte("a")
	store.objects["backups/folio-backup-2025-03-09-000000.tar.gz"] = []byte("bb")
	store.objects["backups/folio-backup-garbage.tar.gz"] = []byte("c")
	store.objects["backups/notes.txt"] = []byte("d")

	backups, err := service.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "backups/folio-backup-2025-03-09-000000.tar.gz", backups[0].Key)
	assert.Equal(t, int64(24), backups[0].AgeHours)
	assert.Equal(t, int64(2), backups[0].SizeBytes)
}

func TestRotateOldBackups(t *testing.T) {
	service, store, _ := newTestBackupService(t)
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	for _, day := range []int{1, 2, 3, 4, 5} {
		key := "backups/folio-backup-" + time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC).Format(backupTimeLayout) + ".tar.gz"
		store.objects[key] = []byte("x")
	}

	// everything is older than 7 days but the newest three stay
	deleted, err := service.RotateOldBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Len(t, store.keys(), 3)
	assert.NotContains(t, store.keys(), "backups/folio-backup-2025-03-01-000000.tar.gz")

	deleted, err = service.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestBackupJob(t *testing.T) {
	service, store, _ := newTestBackupService(t)
	job := NewBackupJob(service, 30, zerolog.Nop())

	assert.Equal(t, "backup", job.Name())
	require.NoError(t, job.Run())
	assert.Len(t, store.keys(), 1)
}
