package manager

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/view"
	"github.com/spance/chimpchat-go/chimpchat/wire"
)

// TouchCommand maps a touch of the given press type to its monkey command.
func TouchCommand(x, y int, pressType definitions.TouchPressType) (wire.Command, error) {
	xs, ys := strconv.Itoa(x), strconv.Itoa(y)
	switch pressType {
	case definitions.Down:
		return wire.NewCommand("touch", "down", xs, ys), nil
	case definitions.Up:
		return wire.NewCommand("touch", "up", xs, ys), nil
	case definitions.Move:
		return wire.NewCommand("touch", "move", xs, ys), nil
	case definitions.DownAndUp:
		return wire.NewCommand("tap", xs, ys), nil
	default:
		return wire.Command{}, fmt.Errorf("%w: touch press type %v", definitions.ErrInvalidArgument, pressType)
	}
}

// KeyCommand maps a key press of the given press type to its monkey command.
func KeyCommand(keyName string, pressType definitions.TouchPressType) (wire.Command, error) {
	switch pressType {
	case definitions.Down:
		return wire.NewCommand("key", "down", keyName), nil
	case definitions.Up:
		return wire.NewCommand("key", "up", keyName), nil
	case definitions.DownAndUp:
		return wire.NewCommand("press", keyName), nil
	default:
		return wire.Command{}, fmt.Errorf("%w: key press type %v", definitions.ErrInvalidArgument, pressType)
	}
}

// TypeCommands splits text on line breaks: the wire format cannot carry them,
// so each one becomes a press of the enter key.
func TypeCommands(text string) []wire.Command {
	var cmds []wire.Command
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			cmds = append(cmds, wire.NewCommand("press", definitions.Enter.KeyName()))
		}
		if line != "" {
			cmds = append(cmds, wire.NewCommand("type", line))
		}
	}
	return cmds
}

// do sends cmd and converts a remote failure into an error.
func (s *Session) do(cmd wire.Command) (wire.Response, error) {
	resp, err := s.Send(cmd)
	if err != nil {
		return resp, err
	}
	return resp, resp.Err(cmd)
}

// Wake is the liveness probe: a no-op that also wakes the screen.
func (s *Session) Wake() error {
	_, err := s.do(wire.NewCommand("wake"))
	return err
}

func (s *Session) Touch(x, y int, pressType definitions.TouchPressType) error {
	cmd, err := TouchCommand(x, y, pressType)
	if err != nil {
		return err
	}
	_, err = s.do(cmd)
	return err
}

func (s *Session) TouchDown(x, y int) error {
	return s.Touch(x, y, definitions.Down)
}

func (s *Session) TouchUp(x, y int) error {
	return s.Touch(x, y, definitions.Up)
}

func (s *Session) TouchMove(x, y int) error {
	return s.Touch(x, y, definitions.Move)
}

func (s *Session) Tap(x, y int) error {
	return s.Touch(x, y, definitions.DownAndUp)
}

func (s *Session) Key(keyName string, pressType definitions.TouchPressType) error {
	cmd, err := KeyCommand(keyName, pressType)
	if err != nil {
		return err
	}
	_, err = s.do(cmd)
	return err
}

func (s *Session) Press(keyName string) error {
	return s.Key(keyName, definitions.DownAndUp)
}

func (s *Session) KeyDown(keyName string) error {
	return s.Key(keyName, definitions.Down)
}

func (s *Session) KeyUp(keyName string) error {
	return s.Key(keyName, definitions.Up)
}

// Type stops at the first failed line.
func (s *Session) Type(text string) error {
	for _, cmd := range TypeCommands(text) {
		if _, err := s.do(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) GetVariable(name string) (string, error) {
	resp, err := s.do(wire.NewCommand("getvar", name))
	if err != nil {
		return "", err
	}
	return resp.Payload, nil
}

func (s *Session) ListVariables() ([]string, error) {
	resp, err := s.do(wire.NewCommand("listvar"))
	if err != nil {
		return nil, err
	}
	return resp.Fields(), nil
}

func (s *Session) ListViewIDs() ([]string, error) {
	resp, err := s.do(wire.NewCommand("listviews"))
	if err != nil {
		return nil, err
	}
	return resp.Fields(), nil
}

func (s *Session) GetRootView() (*view.View, error) {
	resp, err := s.do(wire.NewCommand("getrootview"))
	if err != nil {
		return nil, err
	}
	id, err := view.ParseRootID(resp.Payload)
	if err != nil {
		return nil, err
	}
	return view.New(s, id), nil
}

// Quit asks the monkey service to exit. The service may drop the connection
// before or right after replying, so an unread reply is not an error.
func (s *Session) Quit() error {
	cmd := wire.NewCommand("quit")
	resp, err := s.Send(cmd)
	if errors.Is(err, definitions.ErrSessionClosed) {
		return err
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("[Quit] no reply from monkey")
		return nil
	}
	return resp.Err(cmd)
}
