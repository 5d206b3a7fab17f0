// Package validation checks files holding credentials before they are used.
package validation

import (
	"fmt"
	"os"
)

// IsValidFilePermissions rejects modes granting any access to other users.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode.Perm()&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600", mode.Perm().String())
	}
	return nil
}

// CheckSecretFile verifies that path is a regular file not accessible to other users.
func CheckSecretFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}
	return IsValidFilePermissions(info.Mode())
}
