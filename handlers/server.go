package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
	"github.com/bsaid97/go-polygon-cleaner/codec"
	"github.com/bsaid97/go-polygon-cleaner/config"
	"github.com/bsaid97/go-polygon-cleaner/utils"
)

const zipBaseName = "cleaned_polygons"

// Server serves the cleaning endpoints.
type Server struct {
	cfg *config.Config
}

type cleanResponse struct {
	Name              string              `json:"name"`
	CRS               string              `json:"crs"`
	Stats             cleaning.Stats      `json:"stats"`
	Logs              []cleaning.LogEntry `json:"logs"`
	FeatureCollection json.RawMessage     `json:"featureCollection"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Routes returns the server's handler with request logging and panic recovery.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/clean", s.HandleClean)
	mux.HandleFunc("/check-geometry", s.HandleCheckGeometry)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return RequestLogger(recoverPanics(mux))
}

// HandleClean runs the pipeline on an uploaded GeoJSON file. The optional
// "name", "tolerance" and "format" (json or zip) values come from the form or
// the query string.
func (s *Server) HandleClean(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Invalid request method, only POST allowed")
		return
	}

	upload, err := utils.ReadUpload(r, "file", s.cfg.Server.MaxUploadBytes())
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.cfg.Cleaning.Options()
	if raw := upload.Value("tolerance"); raw != "" {
		tolerance, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			err = cleaning.ValidateTolerance(tolerance)
		}
		if err != nil {
			sendError(w, http.StatusBadRequest, fmt.Sprintf("invalid tolerance %q", raw))
			return
		}
		opts.Tolerance = tolerance
	}

	name := upload.Value("name")
	if name == "" {
		name = upload.Filename
	}
	codecOpts := s.cfg.Cleaning.CodecOptions(name)

	cleaned, err := s.runWithTimeout(r.Context(), func() (*Cleaned, error) {
		return CleanGeoJSON(upload.Payload, cleaning.New(opts), codecOpts)
	})
	if err != nil {
		sendFailure(w, err)
		return
	}

	if upload.Value("format") == "zip" {
		zipData, err := ZipCleaned(cleaned, zipBaseName)
		if err != nil {
			sendError(w, http.StatusInternalServerError, err.Error())
			return
		}
		sendZipResponse(w, zipData)
		return
	}

	sendJSON(w, http.StatusOK, cleanResponse{
		Name:              cleaned.Result.Collection.Name,
		CRS:               cleaned.Result.Collection.CRS,
		Stats:             cleaned.Result.Stats,
		Logs:              cleaned.Result.Logs,
		FeatureCollection: cleaned.GeoJSON,
	})
}

// HandleCheckGeometry reports invalid geometries without repairing them.
func (s *Server) HandleCheckGeometry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Invalid request method, only POST allowed")
		return
	}

	upload, err := utils.ReadUpload(r, "file", s.cfg.Server.MaxUploadBytes())
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := CheckGeoJSON(upload.Payload, s.cfg.Cleaning.CodecOptions(upload.Filename))
	if err != nil {
		sendFailure(w, err)
		return
	}
	sendJSON(w, http.StatusOK, reports)
}

var errTimeout = errors.New("cleaning did not finish in time")

// runWithTimeout runs fn and gives up after the configured request timeout.
// A run that is given up on keeps going in the background and its result is
// discarded.
func (s *Server) runWithTimeout(ctx context.Context, fn func() (*Cleaned, error)) (*Cleaned, error) {
	timeout := s.cfg.Server.RequestTimeout
	if timeout <= 0 {
		return fn()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		cleaned *Cleaned
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("cleaning panicked: %v", rec)}
			}
		}()
		cleaned, err := fn()
		done <- outcome{cleaned: cleaned, err: err}
	}()

	select {
	case out := <-done:
		return out.cleaned, out.err
	case <-ctx.Done():
		return nil, errTimeout
	}
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("PANIC recovered")
				sendError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func sendFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, codec.ErrMalformedInput):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errTimeout):
		sendError(w, http.StatusServiceUnavailable, err.Error())
	default:
		sendError(w, http.StatusInternalServerError, err.Error())
	}
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, errorResponse{Error: message})
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func sendZipResponse(w http.ResponseWriter, zipData []byte) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipBaseName+".zip"))
	w.WriteHeader(http.StatusOK)
	w.Write(zipData)
}

// ListenAndServe starts the HTTP server on the configured address.
func ListenAndServe(cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Addr, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewServer(cfg).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("Server is listening")
	return srv.ListenAndServe()
}
