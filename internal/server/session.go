package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/coordinator"
	"github.com/askiada/go-livepipe/internal/persist"
)

const (
	messageProgram = "program"
	messageOutcome = "outcome"

	writeTimeout = 10 * time.Second
)

// clientMessage is sent by the browser on every edit.
type clientMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// programMessage tells a new client the program its session starts with.
type programMessage struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Text    string `json:"text"`
	Title   string `json:"title"`
}

type errorMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// outcomeMessage is a published outcome.
type outcomeMessage struct {
	Type       string        `json:"type"`
	Seq        uint64        `json:"seq"`
	Kind       string        `json:"kind"`
	Chunks     []string      `json:"chunks,omitempty"`
	OutputType string        `json:"outputType,omitempty"`
	Help       string        `json:"help,omitempty"`
	Error      *errorMessage `json:"error,omitempty"`
	Title      string        `json:"title"`
}

func newOutcomeMessage(out coordinator.Outcome, title string) outcomeMessage {
	msg := outcomeMessage{
		Type:  messageOutcome,
		Seq:   out.Seq,
		Kind:  out.Kind.String(),
		Title: title,
	}

	switch out.Kind {
	case coordinator.KindOutput:
		msg.Chunks = out.Chunks
		msg.OutputType = string(out.OutputType())
	case coordinator.KindHelp:
		msg.Help = out.Help
	case coordinator.KindError:
		msg.Error = &errorMessage{Kind: string(out.Err.Kind), Message: out.Err.Err.Error()}
	}

	return msg
}

// session is one websocket client with its own coordinator.
type session struct {
	id    string
	conn  *websocket.Conn
	coord *coordinator.Coordinator

	writeMu sync.Mutex
}

func (s *session) write(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err != nil {
		return errors.Wrap(err, "unable to set write deadline")
	}

	return errors.Wrap(s.conn.WriteJSON(v), "unable to write message")
}

func (s *session) close() {
	_ = s.coord.Close()
	_ = s.conn.Close()
}

func (s *Server) initialProgram(ctx context.Context) string {
	text, err := s.store.Load(ctx)
	if err == nil {
		return text
	}

	if !errors.Is(err, persist.ErrNotFound) {
		s.logger.Warn("unable to load saved program", "error", err)
	}

	return s.opts.Program
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)

		return
	}

	sess := &session{id: uuid.NewString(), conn: conn}
	logger := s.logger.With("session", sess.id)
	program := s.initialProgram(r.Context())

	sess.coord = coordinator.New(s.comp, s.newExecutor(),
		coordinator.WithDebounce(s.opts.Debounce),
		coordinator.WithProgram(program),
		coordinator.WithNotifier(s.detached),
		coordinator.WithLogger(logger),
		coordinator.WithPublisher(coordinator.PublisherFunc(func(out coordinator.Outcome) {
			err := sess.write(newOutcomeMessage(out, sess.coord.Title()))
			if err != nil {
				logger.Debug("unable to send outcome", "error", err)
			}
		})),
	)

	s.addSession(sess)
	defer s.removeSession(sess)
	defer sess.close()

	err = sess.write(programMessage{Type: messageProgram, Session: sess.id, Text: program, Title: sess.coord.Title()})
	if err != nil {
		logger.Debug("unable to greet client", "error", err)

		return
	}

	err = sess.coord.Attach(s.input.Subscribe())
	if err != nil {
		logger.Warn("unable to attach input", "error", err)

		return
	}

	logger.Info("session started")

	for {
		var msg clientMessage

		err := conn.ReadJSON(&msg)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("session read failed", "error", err)
			}

			logger.Info("session ended")

			return
		}

		switch msg.Type {
		case messageProgram:
			sess.coord.OnProgramChanged(msg.Text)
		default:
			logger.Debug("unknown message ignored", "type", msg.Type)
		}
	}
}

func (s *Server) addSession(sess *session) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	s.sessions[sess] = struct{}{}
}

func (s *Server) removeSession(sess *session) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	delete(s.sessions, sess)
}

// closeSessions closes every websocket, which ends their read loops.
func (s *Server) closeSessions() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for sess := range s.sessions {
		_ = sess.conn.Close()
	}
}
