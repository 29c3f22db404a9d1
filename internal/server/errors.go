// SPDX-License-Identifier: MIT
package server

import (
	"context"
	"errors"
	"net/http"

	"noiseless/internal/audio"
	"noiseless/internal/log"
)

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func requestStatus(err error) int {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// StatusFor maps a pipeline error to the HTTP status returned to the client.
func StatusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, audio.ErrFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, audio.ErrEmptyAudio):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, jobID string, err error) {
	status := StatusFor(err)
	if status >= 500 {
		log.Errorf("Server: job %s failed: %v", jobID, err)
	} else {
		log.Warnf("Server: job %s rejected (%d): %v", jobID, status, err)
	}
	w.Header().Set("X-Job-Id", jobID)
	http.Error(w, err.Error(), status)
}
