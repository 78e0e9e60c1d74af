package wire

import "strings"

// Command is one monkey request: a verb followed by ordered arguments.
// Arguments are written as-is, there is no quoting layer.
type Command struct {
	Verb string
	Args []string
}

func NewCommand(verb string, args ...string) Command {
	return Command{Verb: verb, Args: append([]string(nil), args...)}
}

// String renders the command line without the terminator.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return strings.TrimSpace(c.Verb)
	}
	return strings.TrimSpace(c.Verb + " " + strings.Join(c.Args, " "))
}

func (c Command) Encode() []byte {
	return []byte(c.String() + "\n")
}
