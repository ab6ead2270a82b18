package bridge

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// LineConn speaks one JSON message per line, for hosts that spawn the bridge
// as a child process and talk over its stdin/stdout.
type LineConn struct {
	r       *bufio.Scanner
	in      io.Reader
	w       io.Writer
	mu      sync.Mutex
	closed  bool
	closeFn sync.Once
}

// NewLineConn reads messages from r and writes them to w
func NewLineConn(r io.Reader, w io.Writer) *LineConn {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	return &LineConn{r: scanner, in: r, w: w}
}

// ReadMessage returns the next non-empty line, or io.EOF at end of input
func (c *LineConn) ReadMessage() ([]byte, error) {
	for c.r.Scan() {
		line := c.r.Bytes()
		if len(line) == 0 {
			continue
		}
		return append([]byte(nil), line...), nil
	}
	if err := c.r.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// WriteMessage writes data followed by a newline
func (c *LineConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	if _, err := c.w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}

// Close stops writes and closes the input when it can be closed. That wakes a
// pending ReadMessage on pipes and poller-managed files, but not on an
// inherited blocking stdin; Serve does not wait for the reader.
func (c *LineConn) Close() error {
	var err error
	c.closeFn.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if closer, ok := c.in.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

// wsConn adapts a websocket connection to Conn. gorilla allows one writer at
// a time, and Close writes a close frame from another goroutine.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		kind, payload, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return payload, nil
		}
	}
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Handler serves one pet session per websocket connection on /ws and a
// liveness probe on /health.
func Handler(ctx context.Context, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// browser extensions connect from their own origin
			return true
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
		conn.SetReadLimit(maxMessageSize)

		sessionLog := log.With(zap.String("remote", r.RemoteAddr))
		sessionLog.Info("session started")
		sessionOpts := opts
		sessionOpts.Logger = sessionLog
		if err := Serve(ctx, &wsConn{conn: conn}, sessionOpts); err != nil {
			sessionLog.Warn("session ended with error", zap.Error(err))
			return
		}
		sessionLog.Info("session ended")
	})
	return mux
}

// ListenAndServe runs the websocket bridge on addr until ctx is cancelled
func ListenAndServe(ctx context.Context, addr string, opts Options) error {
	srv := &http.Server{Addr: addr, Handler: Handler(ctx, opts)}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// isClosed reports errors that just mean the peer went away
func isClosed(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
