package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSideFiles are the suffixes SQLite appends for its write-ahead log and shared memory.
var sqliteSideFiles = []string{"-wal", "-shm"}

// AuditLogBytes reports the on-disk size of an audit log, including SQLite side files.
func AuditLogBytes(l AuditLog) (int64, error) {
	return DiskUsageBytes(l.Path())
}

// DiskUsageBytes sums the sizes of the given files and directories. Missing and empty
// paths count as zero. A SQLite database also counts its -wal and -shm side files.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		for _, suffix := range sqliteSideFiles {
			n, err := sizeOf(p + suffix)
			if err != nil {
				return 0, err
			}
			total += n
		}
		n, err := sizeOf(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// sizeOf returns the size of a file, or the sum of every file below a directory.
func sizeOf(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
