// Package backup keeps rotating JSON copies of the habit snapshot next to the
// store, independent of the storage backend.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitt/internal/constants"
	"github.com/julianstephens/habitt/internal/logger"
	"github.com/julianstephens/habitt/internal/models"
	"github.com/julianstephens/habitt/internal/storage"
)

const (
	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	seq       int
}

// Manager handles backup operations
type Manager struct {
	backupDir  string
	maxBackups int
	loc        *time.Location
	now        func() time.Time
}

// NewManager creates a backup manager storing files under configDir/backups.
// maxBackups <= 0 selects the default retention.
func NewManager(configDir string, maxBackups int, loc *time.Location) *Manager {
	if maxBackups <= 0 {
		maxBackups = constants.MaxBackups
	}
	if loc == nil {
		loc = time.Local
	}
	return &Manager{
		backupDir:  filepath.Join(configDir, constants.BackupDirName),
		maxBackups: maxBackups,
		loc:        loc,
		now:        time.Now,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// MaxBackups returns the retention limit
func (m *Manager) MaxBackups() int {
	return m.maxBackups
}

func (m *Manager) ensureBackupDir() error {
	return os.MkdirAll(m.backupDir, 0700)
}

// CreateBackup writes snap to a new timestamped file and prunes old backups
func (m *Manager) CreateBackup(snap models.Snapshot) (string, error) {
	return m.createBackup(snap, false)
}

// skipRotation keeps a pre-restore backup from evicting the file being restored
func (m *Manager) createBackup(snap models.Snapshot, skipRotation bool) (string, error) {
	if err := m.ensureBackupDir(); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	backupPath, err := m.uniquePath()
	if err != nil {
		return "", err
	}

	tmp := backupPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, backupPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	logger.Named("backup").Debug("Created backup", "path", backupPath, "bytes", len(data))

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			// rotation failures never fail the backup itself
			logger.Named("backup").Warn("Failed to rotate old backups", "error", err)
		}
	}

	return backupPath, nil
}

// uniquePath picks a file name with minute precision, falling back to seconds
// and then a counter when the name is taken
func (m *Manager) uniquePath() (string, error) {
	now := m.now()
	candidate := func(stamp string, counter int) string {
		name := constants.BackupFilePrefix + stamp
		if counter > 0 {
			name += "-" + strconv.Itoa(counter)
		}
		return filepath.Join(m.backupDir, name+constants.BackupFileSuffix)
	}

	path := candidate(now.Format(minuteLayout), 0)
	if !exists(path) {
		return path, nil
	}

	stamp := now.Format(secondLayout)
	path = candidate(stamp, 0)
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", errors.New("failed to generate unique backup filename")
		}
		path = candidate(stamp, counter)
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListBackups returns all available backups, newest first
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
		timestamp, seq, ok := parseStamp(stamp)
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: timestamp,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.After(backups[j].Timestamp)
		}
		return backups[i].seq > backups[j].seq
	})

	return backups, nil
}

// parseStamp accepts YYYYMMDD-HHMM, YYYYMMDD-HHMMSS and either with a -N counter
func parseStamp(stamp string) (time.Time, int, bool) {
	seq := 0
	parts := strings.Split(stamp, "-")
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, 0, false
		}
		seq = n
		stamp = parts[0] + "-" + parts[1]
	}

	for _, layout := range []string{minuteLayout, secondLayout} {
		if len(stamp) != len(layout) {
			continue
		}
		if ts, err := time.ParseInLocation(layout, stamp, time.Local); err == nil {
			return ts, seq, true
		}
	}
	return time.Time{}, 0, false
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	if len(backups) <= m.maxBackups {
		return nil
	}

	for _, b := range backups[m.maxBackups:] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
	}
	return nil
}

// ReadBackup decodes a backup file
func (m *Manager) ReadBackup(backupPath string) (models.Snapshot, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Snapshot{}, fmt.Errorf("backup file does not exist: %s", backupPath)
		}
		return models.Snapshot{}, err
	}
	snap, err := storage.DecodeSnapshot(data, m.loc)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	return snap, nil
}

// RestoreBackup reads backupPath and returns its snapshot for the caller to
// install. A non-empty current snapshot is backed up first.
func (m *Manager) RestoreBackup(backupPath string, current models.Snapshot) (models.Snapshot, error) {
	snap, err := m.ReadBackup(backupPath)
	if err != nil {
		return models.Snapshot{}, err
	}

	if !current.IsEmpty() {
		currentBackup, err := m.createBackup(current, true)
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("failed to backup current state before restore: %w", err)
		}
		logger.Named("backup").Info("Created pre-restore backup", "path", currentBackup)
	}

	return snap, nil
}

// Resolve finds a backup given an absolute path, a path relative to the
// working directory or a bare file name inside the backup directory
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if !exists(name) {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if exists(name) {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(m.backupDir, name)
	if exists(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", m.backupDir)
}
