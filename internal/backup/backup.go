package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/henkisdabro/mcpsel/internal/paths"
	"github.com/henkisdabro/mcpsel/pkg/fileutil"
)

// Manager handles backup creation, restoration, and pruning. Backups are
// kept per source file: each mutated config file gets its own directory of
// timestamped copies under the backup root.
type Manager struct {
	rootDir        string
	retentionCount int
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackupDir sets the root backup directory.
func WithBackupDir(dir string) Option {
	return func(m *Manager) {
		m.rootDir = dir
	}
}

// WithRetentionCount sets the number of backups to retain per file.
func WithRetentionCount(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.retentionCount = n
		}
	}
}

// NewManager creates a new backup Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rootDir:        paths.BackupDir(),
		retentionCount: DefaultRetentionCount,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backup copies the file at path into the backup directory under a fresh
// timestamp ID and records it in the file's manifest. The copy is verified
// with a SHA256 hash on restore. Backing up a non-existent file is a no-op
// returning nil; there is nothing to protect yet.
//
// After a successful backup, copies beyond the retention count are pruned.
func (m *Manager) Backup(path string) (*Entry, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errors.Newf("%s is a directory", path)
	}

	fileDir := m.fileDir(path)
	if err := os.MkdirAll(fileDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating backup directory")
	}

	id := time.Now().Format("20060102T150405.000000000")
	dst := filepath.Join(fileDir, id)

	hash, mode, err := copyFile(path, dst)
	if err != nil {
		return nil, errors.Wrapf(err, "backing up %s", path)
	}

	entry := Entry{
		ID:           id,
		OriginalPath: path,
		CreatedAt:    time.Now().UTC(),
		SHA256Hash:   hash,
		Mode:         mode,
	}

	manifest, err := m.loadManifest(path)
	if err != nil {
		return nil, err
	}
	manifest.Entries = append(manifest.Entries, entry)
	if err := m.saveManifest(path, manifest); err != nil {
		return nil, err
	}

	if err := m.Prune(path, m.retentionCount); err != nil {
		return nil, err
	}

	return &entry, nil
}

// Latest returns the newest backup entry for a file.
// Returns ErrNoBackupsFound when none exist.
func (m *Manager) Latest(path string) (*Entry, error) {
	entries, err := m.List(path)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// List returns all backups for a file, newest first.
func (m *Manager) List(path string) ([]Entry, error) {
	manifest, err := m.loadManifest(path)
	if err != nil {
		return nil, err
	}
	if len(manifest.Entries) == 0 {
		return nil, ErrNoBackupsFound
	}

	entries := slices.Clone(manifest.Entries)
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return 0
	})
	return entries, nil
}

// Restore copies a backup back over its original location after verifying
// its hash. An empty backupID restores the latest backup.
func (m *Manager) Restore(path, backupID string) error {
	entries, err := m.List(path)
	if err != nil {
		return err
	}

	var entry *Entry
	if backupID == "" {
		entry = &entries[0]
	} else {
		for i := range entries {
			if entries[i].ID == backupID {
				entry = &entries[i]
				break
			}
		}
	}
	if entry == nil {
		return errors.Wrapf(ErrNoBackupsFound, "backup %s", backupID)
	}

	src := filepath.Join(m.fileDir(path), entry.ID)

	hash, err := hashFile(src)
	if err != nil {
		return errors.Wrapf(err, "reading backup %s", entry.ID)
	}
	if hash != entry.SHA256Hash {
		return errors.Wrapf(ErrBackupCorrupted, "backup %s hash mismatch", entry.ID)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	if _, _, err := copyFile(src, path); err != nil {
		return errors.Wrapf(err, "restoring %s", path)
	}
	if err := os.Chmod(path, entry.Mode); err != nil {
		return errors.Wrapf(err, "setting permissions for %s", path)
	}
	return nil
}

// Prune removes backups of a file beyond the retention count, keeping the
// most recent 'keep' entries.
func (m *Manager) Prune(path string, keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	entries, err := m.List(path)
	if err != nil {
		if errors.Is(err, ErrNoBackupsFound) {
			return nil
		}
		return err
	}
	if len(entries) <= keep {
		return nil
	}

	fileDir := m.fileDir(path)
	for _, entry := range entries[keep:] {
		if err := os.Remove(filepath.Join(fileDir, entry.ID)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "removing backup %s", entry.ID)
		}
	}

	manifest := &Manifest{Version: ManifestVersion, Entries: entries[:keep]}
	return m.saveManifest(path, manifest)
}

// fileDir maps an original file path to its backup directory, preserving the
// original directory structure under the backup root.
func (m *Manager) fileDir(path string) string {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && len(clean) > 0 && clean[0] == filepath.Separator {
		clean = clean[1:]
	}
	return filepath.Join(m.rootDir, clean)
}

func (m *Manager) manifestPath(path string) string {
	return filepath.Join(m.fileDir(path), "manifest.json")
}

func (m *Manager) loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(m.manifestPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{Version: ManifestVersion}, nil
		}
		return nil, errors.Wrap(err, "reading manifest")
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}
	return &manifest, nil
}

func (m *Manager) saveManifest(path string, manifest *Manifest) error {
	if err := fileutil.AtomicWriteJSON(m.manifestPath(path), manifest); err != nil {
		return errors.Wrap(err, "writing manifest")
	}
	return nil
}

// hashFile computes the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies a file from src to dst, returning the SHA256 hash and mode.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating destination file")
	}

	// Compute hash while copying
	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	if _, err := io.Copy(w, srcFile); err != nil {
		dstFile.Close()
		return "", 0, errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		return "", 0, errors.Wrap(err, "closing destination file")
	}

	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}

	return hex.EncodeToString(h.Sum(nil)), mode, nil
}
