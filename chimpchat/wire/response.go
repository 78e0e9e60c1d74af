package wire

import (
	"strings"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

const (
	successMarker = "OK"
	failureMarker = "ERROR"
)

// Response is a decoded monkey reply. OK distinguishes Success from Failure.
// Payload is the text after the first ':' of a success line; Text is the full line.
type Response struct {
	OK      bool
	Payload string
	Text    string
}

func ParseResponse(line string) Response {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, successMarker) {
		return Response{OK: false, Text: line}
	}
	resp := Response{OK: true, Text: line}
	if idx := strings.Index(line, ":"); idx >= 0 {
		resp.Payload = line[idx+1:]
	}
	return resp
}

// Message is the failure text with the ERROR marker removed, or the whole line
// when the remote did not use the marker.
func (r Response) Message() string {
	if r.OK {
		return ""
	}
	msg := strings.TrimPrefix(r.Text, failureMarker)
	return strings.TrimPrefix(msg, ":")
}

// Fields splits a listing payload into its ordered entries.
func (r Response) Fields() []string {
	return strings.Fields(r.Payload)
}

// Err returns nil for a success and a RemoteRejected CommandError otherwise.
func (r Response) Err(cmd Command) error {
	if r.OK {
		return nil
	}
	return &definitions.CommandError{
		Kind:    definitions.ErrRemoteRejected,
		Verb:    cmd.Verb,
		Command: cmd.String(),
		Remote:  r.Text,
	}
}
