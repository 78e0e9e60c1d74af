package constants

import (
	"slices"
	"testing"
)

func TestMonkeyCommand(t *testing.T) {
	if got := MonkeyCommand(12345); got != "monkey --port 12345" {
		t.Errorf("MonkeyCommand() = %q", got)
	}
	want := "monkey -p com.android.settings -c android.intent.category.LAUNCHER 1"
	if got := LaunchCommand("com.android.settings"); got != want {
		t.Errorf("LaunchCommand() = %q, want %q", got, want)
	}
}

func TestResolvePackage(t *testing.T) {
	if got := ResolvePackage("Settings"); got != "com.android.settings" {
		t.Errorf("ResolvePackage(Settings) = %q", got)
	}
	if got := ResolvePackage("org.example.app"); got != "org.example.app" {
		t.Errorf("Unknown names must pass through, got %q", got)
	}
	aliases := Aliases()
	if !slices.IsSorted(aliases) || !slices.Contains(aliases, "Chrome") {
		t.Errorf("Unexpected aliases: %v", aliases)
	}
}
