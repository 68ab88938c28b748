// Package perms toggles file write permissions for claim enforcement.
package perms

import (
	"os"

	"github.com/Iron-Ham/lockstep/internal/errors"
)

// writeBits are the owner, group and other write permission bits.
const writeBits = 0222

// SetReadOnly makes path read-only or writable by flipping its write
// bits. Missing files are not an error; the caller decides whether a
// path is expected to exist.
func SetReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "inspecting file permissions")
	}

	mode := info.Mode()
	var next os.FileMode
	if readOnly {
		next = mode &^ writeBits
	} else {
		next = mode | writeBits
	}
	if next == mode {
		return nil
	}
	if err := os.Chmod(path, next); err != nil {
		return errors.Wrap(err, "changing file permissions")
	}
	return nil
}

// IsReadOnly reports whether path has no write bit set. A missing file
// reports false.
func IsReadOnly(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&writeBits == 0
}
