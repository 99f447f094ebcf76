package feed

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const closeGracePeriod = time.Second

// WebSocket is a Feed where every message received is a chunk.
type WebSocket struct {
	callbacks

	url    string
	dialer *websocket.Dialer
	conn   *websocket.Conn
	done   chan struct{}
	once   sync.Once
}

// NewWebSocket dials url on Start.
func NewWebSocket(url string) *WebSocket {
	return &WebSocket{
		url:    url,
		dialer: websocket.DefaultDialer,
		done:   make(chan struct{}),
	}
}

// Start dials the server and starts reading messages in a goroutine.
func (w *WebSocket) Start(onChunk func([]byte), onClose func(error)) error {
	err := w.start(onChunk, onClose)
	if err != nil {
		return err
	}

	conn, resp, err := w.dialer.DialContext(context.Background(), w.url, nil)
	if err != nil {
		if resp != nil {
			return errors.Wrapf(err, "unable to connect to %s: %s", w.url, resp.Status)
		}

		return errors.Wrapf(err, "unable to connect to %s", w.url)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	go w.readLoop(conn)

	return nil
}

func (w *WebSocket) readLoop(conn *websocket.Conn) {
	defer w.once.Do(func() { close(w.done) })

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.close(nil)
			} else {
				w.close(errors.Wrapf(err, "unable to read from %s", w.url))
			}

			conn.Close()

			return
		}

		w.chunk(msg)
	}
}

// Stop closes the connection and waits for the reader to exit.
func (w *WebSocket) Stop() error {
	if !w.stop() {
		return nil
	}

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return nil
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeGracePeriod))

	err := conn.Close()

	<-w.done

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "unable to close websocket")
	}

	return nil
}

var _ Feed = (*WebSocket)(nil)
