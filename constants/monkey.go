package constants

import (
	"strconv"

	"github.com/valyala/fasttemplate"
)

const (
	ADB = "adb"

	MonkeyCommandTemplate = "monkey --port {{port}}"
	LaunchCommandTemplate = "monkey -p {{package}} -c {{category}} 1"
	LauncherCategory      = "android.intent.category.LAUNCHER"
)

// MonkeyCommand renders the shell command that starts the monkey service on port.
func MonkeyCommand(port int) string {
	return fasttemplate.ExecuteString(MonkeyCommandTemplate, "{{", "}}", map[string]any{
		"port": strconv.Itoa(port),
	})
}

// LaunchCommand renders the shell command that opens packageName's launcher activity.
func LaunchCommand(packageName string) string {
	return fasttemplate.ExecuteString(LaunchCommandTemplate, "{{", "}}", map[string]any{
		"package":  packageName,
		"category": LauncherCategory,
	})
}
