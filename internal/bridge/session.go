package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"deskpet/internal/pet"
)

// Conn is one bidirectional message stream to a host process
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Options configures every session of a bridge
type Options struct {
	Catalog *pet.Catalog
	Config  pet.Config
	Logger  *zap.Logger
}

// Session binds one machine to one connection. All methods except Serve run
// on the session's loop.
type Session struct {
	conn    Conn
	log     *zap.Logger
	machine *pet.Machine
	catalog *pet.Catalog
	bounds  *pet.Bounds
	onQuit  func()
}

// NewSession creates a session whose machine is driven by sched
func NewSession(conn Conn, sched pet.Scheduler, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = pet.DefaultCatalog()
	}
	return &Session{
		conn:    conn,
		log:     log,
		machine: pet.New(sched, opts.Config, pet.WithLogger(log)),
		catalog: catalog,
	}
}

// Start attaches the machine with a surface that writes to the connection
func (s *Session) Start() error {
	return s.attach()
}

func (s *Session) attach() error {
	var surface pet.Surface = &connSurface{s: s}
	if s.bounds != nil {
		surface = boundedSurface{&connSurface{s: s}}
	}
	if err := s.machine.Attach(surface, s.catalog); err != nil {
		return fmt.Errorf("attach session: %w", err)
	}
	return nil
}

// Close detaches the machine; pending timers are cancelled
func (s *Session) Close() {
	s.machine.Detach()
}

// Machine returns the session's machine
func (s *Session) Machine() *pet.Machine {
	return s.machine
}

// Handle decodes and applies one inbound message. Malformed messages are
// answered with an error message and the session carries on.
func (s *Session) Handle(data []byte) error {
	if !s.machine.Attached() {
		return pet.ErrNotAttached
	}

	msg, err := decodeClientMessage(data)
	if err != nil {
		s.send(errorMessage{Type: typeError, Message: err.Error()})
		return err
	}

	switch msg.Type {
	case typeBounds:
		s.setBounds(msg.bounds())
	case typeMenu:
		s.send(newMenuMessage(s.machine.MenuItems()))
	default:
		in, ok := msg.interaction()
		if !ok {
			err := fmt.Errorf("unknown message type %q", msg.Type)
			s.send(errorMessage{Type: typeError, Message: err.Error()})
			return err
		}
		s.machine.HandleInteraction(in)
	}
	return nil
}

// setBounds switches the session to host-owned positioning. The first bounds
// message re-attaches the machine so the surface reports them.
func (s *Session) setBounds(b pet.Bounds) {
	first := s.bounds == nil
	s.bounds = &b
	if !first {
		x, y := s.machine.Position()
		s.machine.SetPosition(x, y)
		return
	}
	s.log.Debug("host owns position", zap.Int("width", b.Width), zap.Int("height", b.Height))
	s.machine.Detach()
	if err := s.attach(); err != nil {
		s.log.Error("re-attach failed", zap.Error(err))
	}
}

func (s *Session) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("failed to marshal message", zap.Error(err))
		return
	}
	if err := s.conn.WriteMessage(data); err != nil {
		s.log.Warn("write failed", zap.Error(err))
	}
}

// connSurface forwards machine commands to the connection
type connSurface struct {
	s *Session
}

func (c *connSurface) ApplyAnimation(cmd pet.AnimationCommand) {
	c.s.send(newAnimationMessage(cmd))
}

func (c *connSurface) ShowEffect(e pet.Effect) {
	c.s.send(effectMessage{Type: typeEffect, Effect: string(e)})
}

func (c *connSurface) Notify(n pet.Notification) {
	c.s.send(newNotificationMessage(n))
	if n.Kind == pet.NotifyQuit && c.s.onQuit != nil {
		c.s.onQuit()
	}
}

type boundedSurface struct {
	*connSurface
}

func (b boundedSurface) VisibleBounds() pet.Bounds {
	return *b.s.bounds
}

// Serve runs a session on conn until the connection ends, ctx is cancelled
// or the pet asks to quit. It returns as soon as the loop has ended; a reader
// still blocked in ReadMessage is left behind, since closing a blocking stdin
// does not interrupt the read.
func Serve(ctx context.Context, conn Conn, opts Options) error {
	loop := NewLoop()
	s := NewSession(conn, loop, opts)
	s.onQuit = loop.Stop

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop.Post(func() {
		if err := s.Start(); err != nil {
			s.log.Error("session start failed", zap.Error(err))
			loop.Stop()
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	readErr := make(chan error, 1)
	go func() {
		readErr <- readMessages(gctx, conn, loop, s)
		cancel()
	}()

	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		conn.Close()
		return nil
	})

	err := g.Wait()
	// the loop goroutine has exited; detaching here cannot race with it
	s.Close()
	select {
	case rerr := <-readErr:
		if rerr != nil {
			err = rerr
		}
	default:
	}
	if errors.Is(err, errStopped) || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || isClosed(err) {
		return nil
	}
	return err
}

// readMessages posts every inbound message onto the loop until the
// connection fails or the loop has ended.
func readMessages(ctx context.Context, conn Conn, loop *Loop, s *Session) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		post := loop.Post(func() {
			if err := s.Handle(data); err != nil {
				s.log.Warn("discarding message", zap.Error(err))
			}
		})
		if !post {
			return nil
		}
	}
}
