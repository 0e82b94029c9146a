package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gdstools/pkg/buildinfo"
	"github.com/matzehuels/gdstools/pkg/design"
	"github.com/matzehuels/gdstools/pkg/errors"
	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// buildResponse is a build without its artifact bytes.
type buildResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Hash      string            `json:"hash"`
	Summary   design.Summary    `json:"summary"`
	Stats     pipeline.Stats    `json:"stats"`
	Artifacts map[string]string `json:"artifacts"` // format -> download path
	Cached    []string          `json:"cached,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func newBuildResponse(b *Build) buildResponse {
	links := make(map[string]string, len(b.Formats))
	for _, f := range b.Formats {
		links[f] = fmt.Sprintf("/v1/builds/%s/artifacts/%s", b.ID, f)
	}
	return buildResponse{
		ID:        b.ID,
		Name:      b.Name,
		Hash:      b.Hash,
		Summary:   b.Summary,
		Stats:     b.Stats,
		Artifacts: links,
		Cached:    b.Cached,
		CreatedAt: b.CreatedAt,
		ExpiresAt: b.ExpiresAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Get(),
	})
}

func (s *Server) handleCreateBuild(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeErrorStatus(w, http.StatusRequestEntityTooLarge,
				errors.New(errors.ErrCodeInvalidInput, "design exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read design"))
		return
	}

	opts, err := buildOptions(r, body)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Logger = s.logger

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.BuildTimeout)
	defer cancel()
	res, err := s.runner.Execute(ctx, opts)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "build exceeded %s", s.cfg.BuildTimeout)
		}
		writeError(w, err)
		return
	}

	b := NewBuild(res, opts.Formats, s.store.TTL())
	if err := s.store.Set(r.Context(), b); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("stored build", "id", b.ID, "design", b.Name, "formats", strings.Join(b.Formats, ","))
	w.Header().Set("Location", "/v1/builds/"+b.ID)
	writeJSON(w, http.StatusCreated, newBuildResponse(b))
}

// buildOptions reads pipeline options from the query string.
func buildOptions(r *http.Request, body []byte) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Source: body,
		Format: requestFormat(r),
		Name:   q.Get("name"),
	}
	if v := q.Get("formats"); v != "" {
		opts.Formats = strings.Split(v, ",")
	}
	if v := q.Get("detailed"); v != "" {
		d, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidParameter, "detailed: %q is not a boolean", v)
		}
		opts.Detailed = d
	}
	for name, dst := range map[string]*float64{"unit": &opts.Unit, "precision": &opts.Precision} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidParameter, "%s: %q is not a number", name, v)
			}
			*dst = f
		}
	}
	opts.Refresh = q.Has("refresh")
	return opts, opts.ValidateAndSetDefaults()
}

func requestFormat(r *http.Request) design.Format {
	if f := r.URL.Query().Get("format"); f != "" {
		return design.Format(strings.ToLower(f))
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
		return design.FormatYAML
	}
	return design.FormatTOML
}

func (s *Server) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBuildResponse(b))
}

func (s *Server) handleDeleteBuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	data, ok := b.Artifacts[format]
	if !ok || !slices.Contains(b.Formats, format) {
		writeError(w, notFound("build %s has no %s artifact (have: %s)", b.ID, format, strings.Join(b.Formats, ", ")))
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Name+"."+format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	sum, ok, err := s.runner.Summary(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, notFound("no summary cached for design %s", hash))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

var contentTypes = map[string]string{
	pipeline.FormatGDS:  "application/octet-stream",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
}
