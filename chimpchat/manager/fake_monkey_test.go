package manager

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeMonkey is a line server standing in for the on-device monkey service.
type fakeMonkey struct {
	t        *testing.T
	listener net.Listener
	handle   func(conn net.Conn, line string)

	mu    sync.Mutex
	lines []string
	conns int
	eofs  int
}

func newFakeMonkey(t *testing.T, handle func(conn net.Conn, line string)) *fakeMonkey {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	m := &fakeMonkey{t: t, listener: l, handle: handle}
	go m.serve()
	t.Cleanup(func() { _ = l.Close() })
	return m
}

// replyWith answers every line with the reply returned by fn.
func replyWith(fn func(line string) string) func(conn net.Conn, line string) {
	return func(conn net.Conn, line string) {
		_, _ = io.WriteString(conn, fn(line)+"\n")
	}
}

func (m *fakeMonkey) serve() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.conns++
		m.mu.Unlock()
		go m.serveConn(conn)
	}
}

func (m *fakeMonkey) serveConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			m.mu.Lock()
			m.eofs++
			m.mu.Unlock()
			return
		}
		line = strings.TrimRight(line, "\r\n")
		m.mu.Lock()
		m.lines = append(m.lines, line)
		m.mu.Unlock()
		m.handle(conn, line)
	}
}

func (m *fakeMonkey) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

func (m *fakeMonkey) Addr() string {
	return m.listener.Addr().String()
}

func (m *fakeMonkey) Dial(t *testing.T) *Session {
	t.Helper()
	conn, err := net.Dial("tcp", m.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	s := NewSession(conn, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeHost records forward and shell requests. Shell calls block until their
// context is cancelled, like a long-running adb shell.
type fakeHost struct {
	mu         sync.Mutex
	forwards   [][2]int
	commands   []string
	forwardErr error
	started    chan string
	stopped    chan error
}

func newFakeHost() *fakeHost {
	return &fakeHost{started: make(chan string, 1), stopped: make(chan error, 1)}
}

func (h *fakeHost) CreateForward(ctx context.Context, localPort, remotePort int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwards = append(h.forwards, [2]int{localPort, remotePort})
	return h.forwardErr
}

func (h *fakeHost) ExecuteShell(ctx context.Context, command string, sink io.Writer, timeout time.Duration) error {
	h.mu.Lock()
	h.commands = append(h.commands, command)
	h.mu.Unlock()
	_, _ = io.WriteString(sink, "starting monkey\n")
	h.started <- command
	<-ctx.Done()
	h.stopped <- ctx.Err()
	return ctx.Err()
}
