package web

import (
	"path/filepath"
	"strings"
)

const scriptExt = ".js"

// chooserScriptPath validates a chooser name from a request and returns the
// script it refers to inside ChooserDir.
func (s *Server) chooserScriptPath(name string) (string, bool) {
	if s.ChooserDir == "" {
		return "", false
	}
	name = strings.TrimSuffix(strings.TrimSpace(name), scriptExt)
	safe := filepath.Clean(name)
	if safe == "" || safe == "." || strings.Contains(safe, "..") ||
		filepath.IsAbs(safe) || strings.ContainsAny(safe, `/\`) {
		return "", false
	}

	baseDir := filepath.Clean(s.ChooserDir)
	resolved := filepath.Join(baseDir, safe+scriptExt)
	rel, err := filepath.Rel(baseDir, resolved)
	if err != nil || strings.Contains(rel, "..") {
		return "", false
	}
	return resolved, true
}
