package web

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	assetCacheControl = "public, max-age=3600"
	contentTypeJS     = "text/javascript; charset=utf-8"
)

// GET /choosers lists the scripts a tower request may name.
func (s *Server) handleListChoosers(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if s.ChooserDir != "" {
		paths, err := filepath.Glob(filepath.Join(s.ChooserDir, "*"+scriptExt))
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, p := range paths {
			names = append(names, strings.TrimSuffix(filepath.Base(p), scriptExt))
		}
		sort.Strings(names)
	}
	s.writeJSON(w, http.StatusOK, names)
}

// GET /choosers/{name} serves a script's source.
func (s *Server) handleChooserSource(w http.ResponseWriter, r *http.Request) {
	path, ok := s.chooserScriptPath(chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(path) // #nosec G304 -- path is under the validated ChooserDir
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentTypeJS)
	w.Header().Set("Cache-Control", assetCacheControl)
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
