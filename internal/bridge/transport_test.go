package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"deskpet/internal/pet"
)

func TestLoopRunsTimersOnLoop(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	fired := make(chan string, 2)
	loop.Post(func() {
		loop.AfterFunc(10*time.Millisecond, func() { fired <- "kept" })
		stopped := loop.AfterFunc(10*time.Millisecond, func() { fired <- "stopped" })
		if !stopped.Stop() {
			t.Error("Stop() = false for a pending timer")
		}
		if stopped.Stop() {
			t.Error("second Stop() = true")
		}
	})

	select {
	case got := <-fired:
		if got != "kept" {
			t.Errorf("fired %q, want kept", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	loop.Stop()
	if err := <-errCh; !errors.Is(err, errStopped) {
		t.Errorf("Run() error = %v, want errStopped", err)
	}
	if loop.Post(func() {}) {
		t.Error("Post() after Run returned = true")
	}
}

func TestLineConn(t *testing.T) {
	var out strings.Builder
	conn := NewLineConn(strings.NewReader("{\"type\":\"click\"}\n\n{\"type\":\"hover\"}\n"), &out)

	for _, want := range []string{`{"type":"click"}`, `{"type":"hover"}`} {
		got, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		if string(got) != want {
			t.Errorf("ReadMessage() = %s, want %s", got, want)
		}
	}
	if _, err := conn.ReadMessage(); err != io.EOF {
		t.Errorf("ReadMessage() at end error = %v, want io.EOF", err)
	}

	if err := conn.WriteMessage([]byte(`{"type":"quit"}`)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if out.String() != "{\"type\":\"quit\"}\n" {
		t.Errorf("written = %q", out.String())
	}

	conn.Close()
	if err := conn.WriteMessage([]byte(`{}`)); err == nil {
		t.Error("WriteMessage() after Close error = nil")
	}
}

// readUntil decodes lines until one has the wanted type and name
func readUntil(t *testing.T, r *bufio.Scanner, typ, name string) map[string]any {
	t.Helper()
	for r.Scan() {
		var msg map[string]any
		if err := json.Unmarshal(r.Bytes(), &msg); err != nil {
			t.Fatalf("bad output line %q: %v", r.Text(), err)
		}
		if msg["type"] == typ && (name == "" || msg["name"] == name) {
			return msg
		}
	}
	t.Fatalf("output ended before %s %s", typ, name)
	return nil
}

func TestServeOverPipes(t *testing.T) {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), NewLineConn(inR, outW), Options{Config: pet.DefaultConfig()})
		outW.Close()
	}()

	out := bufio.NewScanner(outR)
	readUntil(t, out, "setAnimation", "idle")

	io.WriteString(inW, `{"type":"keyPress","key":"3"}`+"\n")
	readUntil(t, out, "setAnimation", "jump")

	io.WriteString(inW, `{"type":"keyPress","key":"esc"}`+"\n")
	readUntil(t, out, "quit", "")

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after quit")
	}
}

// stdinChildEnv makes the test binary act as a bridge child reading the real stdin
const stdinChildEnv = "DESKPET_STDIN_CHILD"

func runStdinChild(mode string) {
	ctx := context.Background()
	if mode == "cancel" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
	}
	err := Serve(ctx, NewLineConn(os.Stdin, os.Stdout), Options{Config: pet.DefaultConfig()})
	fmt.Printf("serve returned: %v\n", err)
}

func TestServeReturnsWithStdinHeldOpen(t *testing.T) {
	if mode := os.Getenv(stdinChildEnv); mode != "" {
		runStdinChild(mode)
		return
	}

	tests := []struct {
		name  string
		mode  string
		input string
	}{
		{"context cancelled", "cancel", ""},
		{"quit", "quit", `{"type":"keyPress","key":"Escape"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=^TestServeReturnsWithStdinHeldOpen$")
			cmd.Env = append(os.Environ(), stdinChildEnv+"="+tt.mode)
			stdin, err := cmd.StdinPipe()
			if err != nil {
				t.Fatal(err)
			}
			// stdin stays open until the child has exited
			defer stdin.Close()
			var out bytes.Buffer
			cmd.Stdout = &out
			if err := cmd.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if tt.input != "" {
				if _, err := io.WriteString(stdin, tt.input); err != nil {
					t.Fatal(err)
				}
			}

			done := make(chan error, 1)
			go func() { done <- cmd.Wait() }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("child exited with %v: %s", err, out.String())
				}
			case <-time.After(5 * time.Second):
				cmd.Process.Kill()
				<-done
				t.Fatalf("Serve() did not return while stdin was held open: %s", out.String())
			}
			if !strings.Contains(out.String(), "serve returned: <nil>") {
				t.Errorf("child output = %q, want a clean return", out.String())
			}
		})
	}
}

func TestServeEndsOnEOF(t *testing.T) {
	var out strings.Builder
	conn := NewLineConn(strings.NewReader(`{"type":"hover"}`+"\n"), &out)

	if err := Serve(context.Background(), conn, Options{}); err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestWebsocketHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(Handler(ctx, Options{Config: pet.DefaultConfig()}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", resp.StatusCode)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() map[string]any {
		t.Helper()
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return msg
	}

	if msg := read(); msg["type"] != "setAnimation" || msg["name"] != "idle" {
		t.Errorf("first message = %v, want setAnimation idle", msg)
	}

	if err := conn.WriteJSON(map[string]any{"type": "keyPress", "key": "2"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := read(); msg["type"] != "setAnimation" || msg["name"] != "walk" {
		t.Errorf("message = %v, want setAnimation walk", msg)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if msg := read(); msg["type"] != "error" {
		t.Errorf("message = %v, want error", msg)
	}
}
