package server

import (
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/persist"
)

func (s *Server) handleStdin(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	offset := 0

	for {
		chunk, done, err := s.input.Next(r.Context(), offset)
		if done || err != nil {
			return
		}

		_, err = w.Write(chunk)
		if err != nil {
			s.logger.Debug("stdin client gone", "error", err)

			return
		}

		flusher.Flush()

		offset += len(chunk)
	}
}

func (s *Server) handleSaveProgram(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProgramSize))
	if err != nil {
		http.Error(w, "unable to read program", http.StatusBadRequest)

		return
	}

	err = s.store.Save(r.Context(), string(body))
	if err != nil {
		s.logger.Warn("unable to save program", "error", err)
		http.Error(w, "unable to save program", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadProgram(w http.ResponseWriter, r *http.Request) {
	text, err := s.store.Load(r.Context())
	if errors.Is(err, persist.ErrNotFound) {
		http.NotFound(w, r)

		return
	}

	if err != nil {
		s.logger.Warn("unable to load program", "error", err)
		http.Error(w, "unable to load program", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

func (s *Server) handleDOT(w http.ResponseWriter, _ *http.Request) {
	s.dotMu.RLock()
	dot := s.dot
	s.dotMu.RUnlock()

	if dot == nil {
		w.WriteHeader(http.StatusNoContent)

		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = w.Write(dot)
}
