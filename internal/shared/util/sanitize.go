package util

import (
	"path/filepath"
	"strings"
)

// DisplayName derives a record name from a file name: directory parts and the
// extension are dropped and separators replaced. Returns "" when nothing usable remains.
func DisplayName(fileName string) string {
	s := strings.TrimSpace(fileName)
	s = strings.ReplaceAll(s, "\\", "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, filepath.Ext(s))
	s = strings.ReplaceAll(s, "..", "")
	return strings.TrimSpace(s)
}
