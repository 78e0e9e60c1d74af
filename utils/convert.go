package utils

import (
	"strconv"
	"strings"
)

func AnyToString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func AnyToIntSlice(v any) []int {
	s, ok := v.([]int)
	if !ok {
		return []int{}
	}
	return s
}

// ParseExtraValue converts a command-line extra to an int, a bool, or leaves it a string.
func ParseExtraValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

// ParseKeyValue splits "key=value" on the first '='.
func ParseKeyValue(s string) (string, string, bool) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", "", false
	}
	return key, value, true
}

// ParseInts parses a comma separated list such as "100,200".
func ParseInts(s string) ([]int, error) {
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
