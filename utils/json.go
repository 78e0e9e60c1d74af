package utils

import (
	"fmt"
	"io"

	json "github.com/bytedance/sonic"
)

func JsonString(obj any) string {
	jsonStr, _ := json.Marshal(obj)
	return string(jsonStr)
}

func JsonIndent(obj any) string {
	jsonStr, _ := json.MarshalIndent(obj, "", "  ")
	return string(jsonStr)
}

// WriteJSON writes obj as indented JSON followed by a newline.
func WriteJSON(w io.Writer, obj any) error {
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %T: %w", obj, err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
