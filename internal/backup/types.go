package backup

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// Manifest format version for forward compatibility.
const ManifestVersion = 1

// DefaultRetentionCount is the default number of backups retained per file.
const DefaultRetentionCount = 10

// Sentinel errors for backup operations.
var (
	// ErrNoBackupsFound indicates no backups exist for the specified file.
	ErrNoBackupsFound = errors.New("no backups found")

	// ErrBackupCorrupted indicates backup file integrity verification failed.
	// This occurs when a copy's SHA256 hash doesn't match the manifest.
	ErrBackupCorrupted = errors.New("backup corrupted")
)

// Manifest lists the backup copies held for one source file.
// It is stored as manifest.json in the file's backup directory.
type Manifest struct {
	// Version is the manifest format version for forward compatibility.
	Version int `json:"version"`

	// Entries describes each timestamped copy.
	Entries []Entry `json:"entries"`
}

// Entry describes one timestamped backup copy.
type Entry struct {
	// ID is the backup identifier (timestamp format with nanoseconds, so
	// rapid successive writes never collide).
	ID string `json:"id"`

	// OriginalPath is the absolute path of the backed up file.
	OriginalPath string `json:"original_path"`

	// CreatedAt is when the backup was created.
	CreatedAt time.Time `json:"created_at"`

	// SHA256Hash is the hex-encoded SHA256 hash of the copy.
	SHA256Hash string `json:"sha256_hash"`

	// Mode is the original file's permission bits.
	Mode fs.FileMode `json:"mode"`
}
