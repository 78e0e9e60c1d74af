package wire

import (
	"bufio"
	"errors"
	"io"
	"net"
	"slices"
	"strings"
	"testing"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{NewCommand("wake"), "wake"},
		{NewCommand("touch", "down", "10", "20"), "touch down 10 20"},
		{NewCommand("type", "hello world"), "type hello world"},
		{NewCommand("queryview", "viewid", "id/button", "gettext"), "queryview viewid id/button gettext"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := string(tt.cmd.Encode()); got != tt.want+"\n" {
			t.Errorf("Encode() = %q, want %q", got, tt.want+"\n")
		}
	}
}

func TestNewCommandCopiesArgs(t *testing.T) {
	args := []string{"a", "b"}
	cmd := NewCommand("x", args...)
	args[0] = "changed"
	if cmd.Args[0] != "a" {
		t.Errorf("Command must not alias caller args, got %v", cmd.Args)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		line    string
		ok      bool
		payload string
		message string
	}{
		{"OK\n", true, "", ""},
		{"OK:1080\r\n", true, "1080", ""},
		{"OK:a b c", true, "a b c", ""},
		{"OK:key:with:colons", true, "key:with:colons", ""},
		{"ERROR\n", false, "", ""},
		{"ERROR:unknown command\n", false, "", "unknown command"},
		{"garbage", false, "", "garbage"},
	}
	for _, tt := range tests {
		resp := ParseResponse(tt.line)
		if resp.OK != tt.ok || resp.Payload != tt.payload || resp.Message() != tt.message {
			t.Errorf("ParseResponse(%q) = %+v (message %q)", tt.line, resp, resp.Message())
		}
	}
	if got := ParseResponse("OK:x y  z").Fields(); !slices.Equal(got, []string{"x", "y", "z"}) {
		t.Errorf("Fields() = %v", got)
	}
	if got := ParseResponse("ERROR:boom").Text; got != "ERROR:boom" {
		t.Errorf("Failure must keep full text, got %q", got)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			switch strings.TrimSpace(line) {
			case "getvar build.device":
				io.WriteString(server, "OK:generic\n")
			default:
				io.WriteString(server, "ERROR:unknown\n")
			}
		}
	}()

	codec := NewCodec(client)
	resp, err := codec.RoundTrip(NewCommand("getvar", "build.device"))
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if !resp.OK || resp.Payload != "generic" {
		t.Errorf("Unexpected response: %+v", resp)
	}

	resp, err = codec.RoundTrip(NewCommand("bogus"))
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.OK || resp.Message() != "unknown" {
		t.Errorf("Expected failure, got: %+v", resp)
	}
}

func TestCodecReadResponseEOF(t *testing.T) {
	codec := NewCodec(struct {
		io.Reader
		io.Writer
	}{strings.NewReader("OK"), io.Discard})
	resp, err := codec.ReadResponse()
	if err != nil || !resp.OK {
		t.Fatalf("Expected trailing OK to decode, got %+v, %v", resp, err)
	}
	if _, err := codec.ReadResponse(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestResponseErr(t *testing.T) {
	cmd := NewCommand("getvar", "missing")
	if err := ParseResponse("OK:1").Err(cmd); err != nil {
		t.Errorf("Expected nil error for success, got %v", err)
	}
	err := ParseResponse("ERROR:no such var").Err(cmd)
	if !errors.Is(err, definitions.ErrRemoteRejected) {
		t.Fatalf("Expected ErrRemoteRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "getvar missing") || !strings.Contains(err.Error(), "no such var") {
		t.Errorf("Error must carry command and remote text, got %q", err.Error())
	}
}
