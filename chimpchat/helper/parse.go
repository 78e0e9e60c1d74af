package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/utils"
)

// Action is one parsed script line. "_metadata" holds "do" or "finish".
type Action map[string]any

func (a Action) Kind() string {
	return utils.AnyToString(a["_metadata"])
}

func (a Action) Name() string {
	return utils.AnyToString(a["action"])
}

func (a Action) String(key string) string {
	return utils.AnyToString(a[key])
}

func (a Action) Ints(key string) []int {
	return utils.AnyToIntSlice(a[key])
}

func (a Action) Int(key string, fallback int) int {
	if v, ok := a[key].(int); ok {
		return v
	}
	return fallback
}

// Point reads a two element coordinate argument such as element=[x,y].
func (a Action) Point(key string) (definitions.Point, error) {
	xy := a.Ints(key)
	if len(xy) != 2 {
		return definitions.Point{}, fmt.Errorf("%w: %s must be [x,y]", definitions.ErrInvalidArgument, key)
	}
	return definitions.Point{X: xy[0], Y: xy[1]}, nil
}

// ParseAction parses a script line of the form do(action="Tap", element=[x,y])
// or finish(message="...").
func ParseAction(line string) (Action, error) {
	line = strings.TrimSpace(line)

	// text may contain anything, including quotes and commas
	if strings.HasPrefix(line, `do(action="Type"`) {
		text, err := extractQuotedArg(line, "text")
		if err != nil {
			return nil, err
		}
		return Action{
			"_metadata": "do",
			"action":    "Type",
			"text":      text,
		}, nil
	}

	if strings.HasPrefix(line, "do(") {
		action, err := parseDoCall(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse do() action: %w", err)
		}
		return action, nil
	}

	if strings.HasPrefix(line, "finish(") {
		action := Action{"_metadata": "finish"}
		if strings.Contains(line, "message=") {
			msg, err := extractQuotedArg(line, "message")
			if err != nil {
				return nil, err
			}
			action["message"] = msg
		}
		return action, nil
	}

	return nil, fmt.Errorf("%w: cannot parse action %q", definitions.ErrInvalidArgument, line)
}

func parseDoCall(expr string) (Action, error) {
	if !strings.HasPrefix(expr, "do(") || !strings.HasSuffix(expr, ")") {
		return nil, errors.New("invalid do() syntax")
	}

	body := strings.TrimSuffix(strings.TrimPrefix(expr, "do("), ")")

	action := Action{
		"_metadata": "do",
	}

	if strings.TrimSpace(body) == "" {
		return action, nil
	}

	for _, part := range splitArgs(body) {
		key, valStr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid argument: %s", part)
		}

		key = strings.TrimSpace(key)
		val, err := parseLiteral(strings.TrimSpace(valStr))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		action[key] = val
	}
	return action, nil
}

func extractQuotedArg(s, key string) (string, error) {
	idx := strings.Index(s, key+"=")
	if idx == -1 {
		return "", fmt.Errorf("missing %s", key)
	}

	rest := s[idx+len(key)+1:]
	if len(rest) < 2 || rest[0] != '"' {
		return "", fmt.Errorf("invalid %s format", key)
	}

	rest = rest[1:]
	end := strings.LastIndex(rest, `"`)
	if end == -1 {
		return "", fmt.Errorf("unterminated string for %s", key)
	}

	return rest[:end], nil
}

// splitArgs splits on commas outside quotes and brackets.
func splitArgs(s string) []string {
	var (
		args     []string
		current  strings.Builder
		inQuotes bool
		depth    int
	)

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == '[' && !inQuotes:
			depth++
		case r == ']' && !inQuotes:
			depth--
		case r == ',' && !inQuotes && depth == 0:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}

func parseLiteral(s string) (any, error) {
	// string
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1], nil
	}

	// bool
	if s == "true" {
		return true, nil
	}
	if s == "false" {
		return false, nil
	}

	// int[]
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		content := strings.TrimSpace(s[1 : len(s)-1])
		if content == "" {
			return []int{}, nil
		}

		parts := strings.Split(content, ",")
		result := make([]int, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			var v int
			if _, err := fmt.Sscanf(p, "%d", &v); err != nil {
				return nil, fmt.Errorf("invalid int in array: %s", p)
			}
			result = append(result, v)
		}
		return result, nil
	}

	// int
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err == nil && fmt.Sprint(i) == s {
		return i, nil
	}

	// float
	var f float64
	if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
		return f, nil
	}

	return nil, fmt.Errorf("unsupported literal: %s", s)
}
