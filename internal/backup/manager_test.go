package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackvault/internal/repository/sqlite"
	"stackvault/internal/storage"
)

type fakeStorage struct {
	uploaded []string
	lastSize int64

	listOut    []storage.ObjectInfo
	listErr    error
	listCalls  int
	listBucket string
	listPrefix string
}

func (f *fakeStorage) UploadFile(ctx context.Context, localPath string, opts storage.UploadOptions) (string, error) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return "", err
	}
	f.lastSize = fi.Size()
	key := opts.KeyPrefix + "/" + filepath.Base(localPath)
	f.uploaded = append(f.uploaded, key)
	return "s3://" + opts.Bucket + "/" + key, nil
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	f.listCalls++
	f.listBucket = bucket
	f.listPrefix = prefix
	return f.listOut, f.listErr
}

func TestRunOnceSnapshotsAndUploads(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE credentials (user_id TEXT PRIMARY KEY, api_key TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO credentials VALUES ('user-1', 'ciphertext')`)
	require.NoError(t, err)

	store := &fakeStorage{}
	mgr := NewManager(Config{
		Interval:      time.Hour,
		UploadOptions: storage.UploadOptions{Bucket: "backups", KeyPrefix: "vault-backups"},
	}, db, store)

	location, err := mgr.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, store.uploaded, 1)
	assert.Contains(t, location, "s3://backups/vault-backups/vault-")
	assert.Greater(t, store.lastSize, int64(0), "snapshot must not be empty")
}

func TestStartReportsExistingSnapshots(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	store := &fakeStorage{
		listOut: []storage.ObjectInfo{
			{Key: "vault-backups/vault-20260101T000000.db", Size: 1, LastModified: &older},
			{Key: "vault-backups/vault-20260102T000000.db", Size: 1, LastModified: &newer},
		},
	}

	mgr := NewManager(Config{
		Interval:      time.Hour,
		UploadOptions: storage.UploadOptions{Bucket: "backups", KeyPrefix: "vault-backups"},
	}, db, store)

	require.NoError(t, mgr.Start(context.Background()))
	mgr.Shutdown()

	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, "backups", store.listBucket)
	assert.Equal(t, "vault-backups", store.listPrefix)
}

func TestStartToleratesListFailure(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &fakeStorage{listErr: errors.New("bucket unreachable")}
	mgr := NewManager(Config{
		Interval:      time.Hour,
		UploadOptions: storage.UploadOptions{Bucket: "backups", KeyPrefix: "vault-backups"},
	}, db, store)

	require.NoError(t, mgr.Start(context.Background()))
	mgr.Shutdown()
}

func TestStartRequiresBucket(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr := NewManager(Config{}, db, &fakeStorage{})
	require.Error(t, mgr.Start(context.Background()))
}
