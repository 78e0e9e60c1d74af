package chimpchat

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

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

// monkeyServer answers monkey commands with reply(line) and records every line.
type monkeyServer struct {
	listener net.Listener
	reply    func(line string) string

	mu    sync.Mutex
	lines []string
}

func newMonkeyServer(t *testing.T, reply func(line string) string) *monkeyServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &monkeyServer{listener: l, reply: reply}
	go s.serve()
	t.Cleanup(func() { _ = l.Close() })
	return s
}

func (s *monkeyServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

func (s *monkeyServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

func (s *monkeyServer) serveConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()

		reply := "OK"
		if s.reply != nil {
			if custom := s.reply(line); custom != "" {
				reply = custom
			}
		}
		if _, err := io.WriteString(conn, reply+"\n"); err != nil {
			return
		}
		if line == "quit" {
			return
		}
	}
}

// Lines returns the recorded commands without the connection probe.
func (s *monkeyServer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, line := range s.lines {
		if line != "wake" {
			out = append(out, line)
		}
	}
	return out
}

// fakeHandle is a DeviceHandle that records shell commands and replays canned output.
type fakeHandle struct {
	mu       sync.Mutex
	shells   []string
	outputs  map[string]string
	forwards [][2]int

	installErr error
	snapshot   []byte
	props      map[string]string
	reboots    []string
}

func (h *fakeHandle) CreateForward(ctx context.Context, localPort, remotePort int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forwards = append(h.forwards, [2]int{localPort, remotePort})
	return nil
}

func (h *fakeHandle) ExecuteShell(ctx context.Context, command string, sink io.Writer, timeout time.Duration) error {
	if strings.HasPrefix(command, "monkey --port") {
		<-ctx.Done()
		return ctx.Err()
	}
	h.mu.Lock()
	h.shells = append(h.shells, command)
	h.mu.Unlock()
	for prefix, output := range h.outputs {
		if strings.HasPrefix(command, prefix) {
			_, _ = io.WriteString(sink, output)
		}
	}
	return nil
}

func (h *fakeHandle) Shells() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.shells...)
}

func (h *fakeHandle) InstallPackage(ctx context.Context, path string) error {
	return h.installErr
}

func (h *fakeHandle) UninstallPackage(ctx context.Context, packageName string) error {
	return h.installErr
}

func (h *fakeHandle) Screenshot(ctx context.Context) ([]byte, error) {
	return h.snapshot, nil
}

func (h *fakeHandle) GetProperty(ctx context.Context, key string) (string, error) {
	return h.props[key], nil
}

func (h *fakeHandle) Reboot(ctx context.Context, into string) error {
	h.reboots = append(h.reboots, into)
	return nil
}

func newTestDevice(t *testing.T, handle *fakeHandle, reply func(line string) string) (*ChimpDevice, *monkeyServer) {
	t.Helper()
	server := newMonkeyServer(t, reply)
	cfg := &definitions.ManagerConfig{
		Port:           server.Port(),
		ConnectTimeout: 2 * time.Second,
		PollInterval:   time.Millisecond,
		WarmUp:         time.Millisecond,
		ProbeTimeout:   500 * time.Millisecond,
	}
	device, err := NewChimpDevice(context.Background(), handle, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewChimpDevice: %v", err)
	}
	t.Cleanup(func() { _ = device.Dispose() })
	return device, server
}
