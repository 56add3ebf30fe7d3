// Package backup ships periodic snapshots of the vault database to object
// storage. Stored secrets are already ciphertext, so the snapshot never
// contains plaintext credentials.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stackvault/internal/storage"
)

// Manager coordinates the snapshot/upload lifecycle.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	RunOnce(ctx context.Context) (string, error)
}

type Config struct {
	Interval      time.Duration
	UploadOptions storage.UploadOptions
	Logger        *logrus.Logger
}

type manager struct {
	cfg     Config
	db      *sql.DB
	storage storage.Service

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(cfg Config, db *sql.DB, store storage.Service) Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		db:      db,
		storage: store,
	}
}

// Start reports what is already in the bucket, then launches the periodic
// snapshot loop. The first new snapshot happens after one full interval, not
// at startup.
func (m *manager) Start(ctx context.Context) error {
	if m.cfg.UploadOptions.Bucket == "" {
		return fmt.Errorf("backup bucket is required")
	}

	m.reportExisting(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go m.loop(runCtx)

	m.cfg.Logger.Infof("backup manager started, interval %s", m.cfg.Interval)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("backup manager stopped")
}

// reportExisting logs how many snapshots the bucket already holds and which
// is newest. Failures are logged and do not block startup.
func (m *manager) reportExisting(ctx context.Context) {
	objects, err := m.storage.ListObjects(ctx, m.cfg.UploadOptions.Bucket, m.cfg.UploadOptions.KeyPrefix)
	if err != nil {
		m.cfg.Logger.Warnf("list existing backups: %v", err)
		return
	}
	if len(objects) == 0 {
		m.cfg.Logger.Info("no existing backups in bucket")
		return
	}

	latest := objects[0]
	for _, obj := range objects[1:] {
		if obj.LastModified != nil && (latest.LastModified == nil || obj.LastModified.After(*latest.LastModified)) {
			latest = obj
		}
	}
	m.cfg.Logger.Infof("found %d existing backups, latest %s", len(objects), latest.Key)
}

func (m *manager) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			location, err := m.RunOnce(ctx)
			if err != nil {
				m.cfg.Logger.Warnf("backup failed: %v", err)
				continue
			}
			m.cfg.Logger.Infof("backup uploaded to %s", location)
		}
	}
}

// RunOnce takes a consistent point-in-time snapshot of the database and
// uploads it, returning the remote location.
func (m *manager) RunOnce(ctx context.Context) (string, error) {
	path, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	uploadCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	location, err := m.storage.UploadFile(uploadCtx, path, m.cfg.UploadOptions)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return location, nil
}

func (m *manager) snapshot(ctx context.Context) (string, error) {
	name := fmt.Sprintf("vault-%s.db", time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(os.TempDir(), name)

	// VACUUM INTO writes a consistent copy without blocking readers.
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("vacuum into snapshot: %w", err)
	}
	return path, nil
}
