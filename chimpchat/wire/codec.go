package wire

import (
	"bufio"
	"io"
)

// Codec reads and writes monkey lines over one byte stream.
// It is not safe for concurrent use; the session serializes callers.
type Codec struct {
	r *bufio.Reader
	w *bufio.Writer
}

func NewCodec(rw io.ReadWriter) *Codec {
	return &Codec{
		r: bufio.NewReader(rw),
		w: bufio.NewWriter(rw),
	}
}

func (c *Codec) WriteCommand(cmd Command) error {
	if _, err := c.w.Write(cmd.Encode()); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Codec) ReadResponse() (Response, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		// a final line without terminator is still a full reply
		if err == io.EOF && line != "" {
			return ParseResponse(line), nil
		}
		return Response{}, err
	}
	return ParseResponse(line), nil
}

// RoundTrip writes cmd and reads exactly one reply.
func (c *Codec) RoundTrip(cmd Command) (Response, error) {
	if err := c.WriteCommand(cmd); err != nil {
		return Response{}, err
	}
	return c.ReadResponse()
}
