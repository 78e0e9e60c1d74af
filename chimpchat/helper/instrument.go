package helper

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

var instrumentationTag = regexp.MustCompile(`(?m)^INSTRUMENTATION_(\w+): `)

// BuildInstrumentArgs renders `am instrument -w -r [-e key value]... pkg`.
// Entries with an empty key or nil value are skipped.
func BuildInstrumentArgs(packageName string, args map[string]any) []string {
	parts := []string{"am", "instrument", "-w", "-r"}

	args = lo.PickBy(args, func(key string, value any) bool {
		return key != "" && value != nil
	})
	keys := lo.Keys(args)
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, "-e", key, fmt.Sprint(args[key]))
	}
	return append(parts, packageName)
}

// ParseInstrumentResult collects the key=value pairs of every
// INSTRUMENTATION_RESULT block in the raw `am instrument -r` output. A block
// runs from its tag to the next tag or the end of the output. RESULT blocks
// without '=' are reported as ErrMalformedResult; the other pairs are still returned.
func ParseInstrumentResult(output string) (map[string]string, error) {
	result := make(map[string]string)
	matches := instrumentationTag.FindAllStringSubmatchIndex(output, -1)

	var errs []error
	for i, m := range matches {
		if output[m[2]:m[3]] != "RESULT" {
			continue
		}
		end := len(output)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		line := strings.TrimSpace(output[m[1]:end])
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("%w: instrumentation result %q", definitions.ErrMalformedResult, line))
			continue
		}
		result[key] = value
	}
	return result, errors.Join(errs...)
}
