package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/database"
	testingpkg "github.com/aristath/fundwatch/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects   map[string][]byte
	deleted   []string
	listErr   error
	deleteErr map[string]error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, deleteErr: map[string]error{}}
}

func (m *memStore) Upload(_ context.Context, key string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, SizeBytes: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	if err := m.deleteErr[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string][]byte{}
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
	db, _ := testingpkg.NewTestDB(t, database.NamePortfolio)
	_, err := db.Exec(`INSERT INTO nav_history (code, nav_date, nav) VALUES ('000001', '2024-01-02', '1.0000')`)
	require.NoError(t, err)

	store := newMemStore()
	svc := NewBackupService(store, []*database.DB{db}, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 14, 30, 22, 0, time.UTC) }

	name, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fundwatch-backup-2024-03-01-143022.tar.gz", name)
	require.Contains(t, store.objects, name)

	files := readArchive(t, store.objects[name])
	require.Contains(t, files, "portfolio.db")
	require.Contains(t, files, "backup-metadata.json")

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files["backup-metadata.json"], &metadata))
	require.Len(t, metadata.Databases, 1)
	assert.Equal(t, "portfolio", metadata.Databases[0].Name)
	assert.Equal(t, int64(len(files["portfolio.db"])), metadata.Databases[0].SizeBytes)
	assert.True(t, strings.HasPrefix(metadata.Databases[0].Checksum, "sha256:"))
	assert.True(t, metadata.Timestamp.Equal(svc.now()))
}

func TestCreateAndUploadBackup_CleansStaging(t *testing.T) {
	db, _ := testingpkg.NewTestDB(t, database.NamePortfolio)
	dataDir := t.TempDir()

	svc := NewBackupService(newMemStore(), []*database.DB{db}, dataDir, zerolog.New(nil).Level(zerolog.Disabled))
	_, err := svc.CreateAndUploadBackup(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListBackups_SortsAndSkipsForeignKeys(t *testing.T) {
	store := newMemStore()
	store.objects["fundwatch-backup-2024-01-01-000000.tar.gz"] = []byte("a")
	store.objects["fundwatch-backup-2024-01-03-000000.tar.gz"] = []byte("abc")
	store.objects["fundwatch-backup-garbage.tar.gz"] = []byte("x")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC) }

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "fundwatch-backup-2024-01-03-000000.tar.gz", backups[0].Filename)
	assert.Equal(t, int64(24), backups[0].AgeHours)
	assert.Equal(t, int64(3), backups[0].SizeBytes)
	assert.Equal(t, int64(72), backups[1].AgeHours)
}

func TestRotateOldBackups_KeepsNewestThree(t *testing.T) {
	store := newMemStore()
	for _, day := range []string{"01", "02", "03", "04", "05", "20"} {
		store.objects["fundwatch-backup-2024-01-"+day+"-000000.tar.gz"] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC) }

	deleted, err := svc.RotateOldBackups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.ElementsMatch(t, []string{
		"fundwatch-backup-2024-01-01-000000.tar.gz",
		"fundwatch-backup-2024-01-02-000000.tar.gz",
		"fundwatch-backup-2024-01-03-000000.tar.gz",
	}, store.deleted)
	assert.Len(t, store.objects, 3)
}

func TestRotateOldBackups_NoRetentionKeepsAll(t *testing.T) {
	store := newMemStore()
	for _, day := range []string{"01", "02", "03", "04", "05"} {
		store.objects["fundwatch-backup-2023-01-"+day+"-000000.tar.gz"] = []byte("x")
	}

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	deleted, err := svc.RotateOldBackups(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, store.objects, 5)
}

func TestRotateOldBackups_DeleteFailureIsSkipped(t *testing.T) {
	store := newMemStore()
	for _, day := range []string{"01", "02", "03", "04", "05"} {
		store.objects["fundwatch-backup-2023-01-"+day+"-000000.tar.gz"] = []byte("x")
	}
	store.deleteErr["fundwatch-backup-2023-01-01-000000.tar.gz"] = errors.New("denied")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	deleted, err := svc.RotateOldBackups(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{"fundwatch-backup-2023-01-02-000000.tar.gz"}, store.deleted)
}

func TestRotateOldBackups_ListError(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("unreachable")

	svc := NewBackupService(store, nil, t.TempDir(), zerolog.New(nil).Level(zerolog.Disabled))
	_, err := svc.RotateOldBackups(context.Background(), 30)
	assert.Error(t, err)
}

func TestS3Config_Configured(t *testing.T) {
	assert.False(t, S3Config{}.Configured())
	assert.False(t, S3Config{Bucket: "b", AccessKeyID: "k"}.Configured())
	assert.True(t, S3Config{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}.Configured())
}
