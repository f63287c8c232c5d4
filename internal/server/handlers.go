package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/familytree/pkg/buildinfo"
	ferrors "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/pipeline"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
}

// treeExtensions are tried in order when resolving a tree by name.
var treeExtensions = []string{".yaml", ".yml", ".json"}

// renderResponse is the body of a multi-format render.
type renderResponse struct {
	Artifacts map[string][]byte `json:"artifacts"`
	Persons   int               `json:"persons"`
	Unplaced  int               `json:"unpositioned"`
	Cached    bool              `json:"cached"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
	})
}

// handleRender renders the inline document in the request body. Sources on
// the server's disk are not reachable through this route.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if opts.Document == nil {
		s.writeError(w, r, ferrors.New(ferrors.ErrCodeInvalidInput, "document is required"))
		return
	}
	opts.Source = ""
	opts.AvatarDir = ""
	s.restrict(&opts)
	s.execute(w, r, opts)
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.TreesDir)
	if err != nil {
		s.writeError(w, r, ferrors.Wrap(ferrors.ErrCodeInternal, err, "read trees directory"))
		return
	}
	names := []string{}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !slices.Contains(treeExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if ferrors.ValidateTreeName(name) == nil && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"trees": names})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	opts, err := s.treeOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.execute(w, r, opts)
}

func (s *Server) handleTreeLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.treeOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, hit, err := s.runner.LayoutJSON(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// treeOptions resolves {name} under the trees directory and reads the
// render options from the query string.
func (s *Server) treeOptions(r *http.Request) (pipeline.Options, error) {
	name := chi.URLParam(r, "name")
	if err := ferrors.ValidateTreeName(name); err != nil {
		return pipeline.Options{}, err
	}
	var path string
	for _, ext := range treeExtensions {
		candidate := filepath.Join(s.cfg.TreesDir, name+ext)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return pipeline.Options{}, ferrors.New(ferrors.ErrCodeNotFound, "tree %q not found", name)
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Source:    path,
		Root:      q.Get("root"),
		View:      q.Get("view"),
		Highlight: q.Get("highlight"),
		Title:     q.Get("title"),
		AvatarDir: s.cfg.TreesDir,
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = strings.Split(f, ",")
	}
	var err error
	if opts.Width, err = floatParam(q.Get("width")); err != nil {
		return opts, err
	}
	if opts.Height, err = floatParam(q.Get("height")); err != nil {
		return opts, err
	}
	if opts.Scale, err = floatParam(q.Get("scale")); err != nil {
		return opts, err
	}
	opts.Interactive = boolParam(q.Get("interactive"))
	opts.Detailed = boolParam(q.Get("detailed"))
	opts.Avatars = boolParam(q.Get("avatars"))
	opts.Strict = boolParam(q.Get("strict"))
	s.restrict(&opts)
	return opts, nil
}

// restrict applies server policy to client-supplied options.
func (s *Server) restrict(opts *pipeline.Options) {
	opts.Remote = opts.Avatars && s.cfg.RemoteAvatars
	opts.Refresh = false
	opts.Logger = s.logger
	opts.Fetcher = nil
}

// execute runs the pipeline and answers with the single artifact, or with a
// JSON envelope when several formats were requested.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(result.CacheInfo.RenderHit))
	if len(result.Artifacts) == 1 {
		for format, data := range result.Artifacts {
			w.Header().Set("Content-Type", contentTypes[format])
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		}
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Artifacts: result.Artifacts,
		Persons:   result.Stats.Persons,
		Unplaced:  result.Stats.Unpositioned,
		Cached:    result.CacheInfo.RenderHit,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := ferrors.HTTPStatus(err)
	code := string(ferrors.GetCode(err))
	if code == "" {
		code = string(ferrors.ErrCodeInternal)
	}
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: ferrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func floatParam(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ferrors.New(ferrors.ErrCodeInvalidInput, "invalid number %q", s)
	}
	return v, nil
}

func boolParam(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}
