package helper

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/samber/lo"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

// BuildIntentArgs renders an intent in the `am start` / `am broadcast` grammar:
//
//	[-a ACTION] [-d DATA] [-t MIME] [-c CATEGORY]... [--ei|--ez|--es KEY VALUE]...
//	[-n COMPONENT] [-f FLAGS] [URI]
//
// Empty fields are omitted, as are flags when zero. Extras are emitted in key order.
func BuildIntentArgs(intent definitions.IntentSpec) []string {
	var parts []string

	if intent.Action != "" {
		parts = append(parts, "-a", intent.Action)
	}
	if intent.Data != "" {
		parts = append(parts, "-d", intent.Data)
	}
	if intent.MimeType != "" {
		parts = append(parts, "-t", intent.MimeType)
	}
	for _, category := range intent.Categories {
		parts = append(parts, "-c", category)
	}

	keys := lo.Keys(intent.Extras)
	sort.Strings(keys)
	for _, key := range keys {
		flag, value := extraArg(intent.Extras[key])
		parts = append(parts, flag, key, value)
	}

	if intent.Component != "" {
		parts = append(parts, "-n", intent.Component)
	}
	if intent.Flags != 0 {
		parts = append(parts, "-f", strconv.Itoa(intent.Flags))
	}
	if intent.URI != "" {
		parts = append(parts, intent.URI)
	}
	return parts
}

// extraArg picks the type flag for an extra; anything not int or bool is sent as a string.
func extraArg(value any) (string, string) {
	switch v := value.(type) {
	case int:
		return "--ei", strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "--ei", fmt.Sprint(v)
	case bool:
		return "--ez", strconv.FormatBool(v)
	default:
		return "--es", fmt.Sprint(v)
	}
}
