package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir returns <user config dir>/<app>, creating it when missing.
// If override is non-empty it is used as the directory instead.
func EnsureDataDir(app, override string) (string, error) {
	dir := override
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("user config dir: %w", err)
		}
		dir = filepath.Join(base, app)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
