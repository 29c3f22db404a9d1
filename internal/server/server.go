// SPDX-License-Identifier: MIT

// Package server exposes the pipeline over HTTP: upload a WAV or MP3, get the
// cleaned file back as an attachment. Progress of every job is broadcast on
// the websocket route.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"noiseless/internal/audio"
	"noiseless/internal/log"
	"noiseless/internal/pipeline"
	"noiseless/internal/transport"

	"github.com/google/uuid"
)

// DefaultMaxUploadBytes caps request bodies at 64 MiB.
const DefaultMaxUploadBytes int64 = 64 << 20

// Options configures a Server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	Pipeline       pipeline.Config
}

// Server handles denoise requests. Jobs are independent, each request
// decodes into its own buffer.
type Server struct {
	opts     Options
	progress *transport.WebSocketTransport
	events   transport.Transport
	mux      *http.ServeMux
	http     *http.Server
}

// New builds a Server and its routes. Close releases the websocket clients.
func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		opts:     opts,
		progress: transport.NewWebSocketTransport(256),
		mux:      http.NewServeMux(),
	}
	s.events = transport.NewMulti(transport.NewLoggingTransport(), s.progress)

	s.mux.HandleFunc("POST /denoise", s.handleDenoise)
	s.mux.Handle("GET /ws", s.progress)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server: listening on %s", s.opts.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Infof("Server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.progress.Close()
	return s.http.Shutdown(shutdownCtx)
}

// Close disconnects progress clients.
func (s *Server) Close() error {
	return s.events.Close()
}

func (s *Server) handleDenoise(w http.ResponseWriter, r *http.Request) {
	jobID := uuid.NewString()
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	raw, declared, err := readUpload(r)
	if err != nil {
		s.fail(w, jobID, err)
		return
	}
	log.Infof("Server: job %s received %d bytes declared %s", jobID, len(raw), declared)

	cfg := s.opts.Pipeline
	if v := r.URL.Query().Get("format"); v != "" {
		if cfg.OutputFormat, err = audio.ParseFormat(v); err != nil {
			s.fail(w, jobID, err)
			return
		}
	}
	if v := r.URL.Query().Get("prop_decrease"); v != "" {
		p, perr := strconv.ParseFloat(v, 64)
		if perr != nil || !(p >= 0 && p <= 1) {
			http.Error(w, "prop_decrease must be a number in [0, 1]", http.StatusBadRequest)
			return
		}
		cfg.Denoise.PropDecrease = p
	}

	res, err := pipeline.Run(r.Context(), raw, declared, cfg, &jobEvents{id: jobID, next: s.events})
	if err != nil {
		s.fail(w, jobID, err)
		return
	}

	w.Header().Set("Content-Type", res.File.MIME)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.File.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.File.Data)))
	w.Header().Set("X-Job-Id", jobID)
	if _, err := w.Write(res.File.Data); err != nil {
		log.Warnf("Server: job %s failed to write response: %v", jobID, err)
	}
}

// readUpload accepts either a multipart form with a "file" field or a raw
// body. The declared format comes from the part's file name or content type,
// else from the request's Content-Type.
func readUpload(r *http.Request) ([]byte, audio.Format, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(ct)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			return nil, audio.FormatUnknown, &requestError{status: requestStatus(err), msg: fmt.Sprintf("invalid upload: %v", err)}
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, audio.FormatUnknown, &requestError{status: http.StatusBadRequest, msg: "missing form field \"file\""}
		}
		defer file.Close()
		declared, err := declaredFormat(header)
		if err != nil {
			return nil, audio.FormatUnknown, err
		}
		raw, err := io.ReadAll(file)
		if err != nil {
			return nil, audio.FormatUnknown, &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf("failed to read upload: %v", err)}
		}
		return raw, declared, nil
	}

	declared, err := audio.ParseFormat(ct)
	if err != nil {
		return nil, audio.FormatUnknown, err
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, audio.FormatUnknown, &requestError{status: requestStatus(err), msg: fmt.Sprintf("failed to read body: %v", err)}
	}
	return raw, declared, nil
}

func declaredFormat(h *multipart.FileHeader) (audio.Format, error) {
	if ext := filepath.Ext(h.Filename); ext != "" {
		return audio.ParseFormat(ext)
	}
	return audio.ParseFormat(h.Header.Get("Content-Type"))
}

// jobEvents stamps pipeline events with the job id before forwarding them.
type jobEvents struct {
	id   string
	next transport.Transport
}

func (j *jobEvents) Send(data any) error {
	if ev, ok := data.(pipeline.Event); ok {
		ev.JobID = j.id
		data = ev
	}
	return j.next.Send(data)
}

// Close is a no-op, the shared transports outlive a job.
func (j *jobEvents) Close() error { return nil }
