package sqlite

import (
	"path/filepath"
	"strings"
)

func isWindowsExe(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".exe")
}
