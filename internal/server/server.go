// Package server serves the live input, program persistence and evaluation
// sessions over HTTP.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/executor"
	"github.com/askiada/go-livepipe/internal/feed"
	"github.com/askiada/go-livepipe/internal/persist"
)

var (
	ErrBroadcasterClosed = errors.New("broadcaster closed")
	ErrSourceMustBeSet   = errors.New("source feed must be set")
)

const (
	shutdownTimeout = 5 * time.Second
	maxProgramSize  = 1 << 20
)

// Options configures a Server.
type Options struct {
	Addr     string
	Debounce time.Duration
	// Program is the text a session starts with when the store has nothing saved.
	Program string
	// Report keeps the DOT graph of the last run, served on /pipeline.dot.
	Report bool
}

// Server is the HTTP surface of livepipe.
type Server struct {
	opts     Options
	source   feed.Feed
	store    persist.Store
	detached *persist.Detached
	comp     coordinator.Compiler
	logger   *slog.Logger
	input    *Broadcaster
	upgrader websocket.Upgrader

	dotMu sync.RWMutex
	dot   []byte

	sessionsMu sync.Mutex
	sessions   map[*session]struct{}
}

// New creates a Server reading its input from source and saving programs in store.
func New(opts Options, source feed.Feed, store persist.Store, comp coordinator.Compiler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	if store == nil {
		store = persist.NewMemory()
	}

	if opts.Debounce <= 0 {
		opts.Debounce = coordinator.DefaultDebounce
	}

	return &Server{
		opts:     opts,
		source:   source,
		store:    store,
		detached: persist.Detach(store, logger),
		comp:     comp,
		logger:   logger,
		input:    NewBroadcaster(),
		sessions: make(map[*session]struct{}),
	}
}

// Input returns the broadcaster holding the source input.
func (s *Server) Input() *Broadcaster {
	return s.input
}

// Handler routes the endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stdin", s.handleStdin)
	mux.HandleFunc("GET /update-input", s.handleLoadProgram)
	mux.HandleFunc("POST /update-input", s.handleSaveProgram)
	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("GET /pipeline.dot", s.handleDOT)

	return mux
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "unable to listen on %s", s.opts.Addr)
	}

	return s.Serve(ctx, ln)
}

// Serve pumps the source into the broadcaster and serves ln until ctx is done
// or one of them fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.source == nil {
		return ErrSourceMustBeSet
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errGrp, gCtx := errgroup.WithContext(ctx)

	errGrp.Go(func() error {
		err := s.source.Start(func(chunk []byte) {
			_, _ = s.input.Write(chunk)
		}, func(err error) {
			if err != nil {
				s.logger.Warn("source feed ended with an error", "error", err)
			} else {
				s.logger.Info("source feed ended")
			}

			s.input.Close(err)
		})
		if err != nil {
			return errors.Wrap(err, "unable to start source feed")
		}

		<-gCtx.Done()

		return errors.Wrap(s.source.Stop(), "unable to stop source feed")
	})

	errGrp.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())

		err := httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}

		return nil
	})

	errGrp.Go(func() error {
		<-gCtx.Done()

		// ends the /stdin streams so that Shutdown does not wait for them
		s.input.Close(nil)
		s.closeSessions()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		if err != nil {
			return errors.Wrap(err, "unable to shutdown http server")
		}

		s.detached.Wait()

		return nil
	})

	return errGrp.Wait()
}

func (s *Server) newExecutor() *executor.Executor {
	if !s.opts.Report {
		return executor.New()
	}

	return executor.New(executor.WithReport(func(r executor.Report) {
		s.dotMu.Lock()
		defer s.dotMu.Unlock()

		s.dot = append([]byte(nil), r.DOT...)
	}))
}
