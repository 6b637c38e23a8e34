package watch

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoDesktop indicates no supported desktop inspection tool is available.
var ErrNoDesktop = errors.New("no supported desktop environment")

// execInspector shells out to the platform's window query tool.
type execInspector struct{}

// NewInspector returns the default inspector for the current platform.
// Linux uses xdotool, macOS uses osascript.
func NewInspector() Inspector {
	return execInspector{}
}

func (execInspector) ActiveWindow(ctx context.Context) (WindowInfo, error) {
	switch runtime.GOOS {
	case "linux":
		return linuxActiveWindow(ctx)
	case "darwin":
		return darwinActiveWindow(ctx)
	default:
		return WindowInfo{}, ErrNoDesktop
	}
}

func linuxActiveWindow(ctx context.Context) (WindowInfo, error) {
	title, err := runLine(ctx, "xdotool", "getactivewindow", "getwindowname")
	if err != nil {
		return WindowInfo{}, err
	}
	app, err := runLine(ctx, "xdotool", "getactivewindow", "getwindowclassname")
	if err != nil {
		app = title
	}
	return WindowInfo{App: app, Title: title}, nil
}

func darwinActiveWindow(ctx context.Context) (WindowInfo, error) {
	app, err := runLine(ctx, "osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`)
	if err != nil {
		return WindowInfo{}, err
	}
	title, err := runLine(ctx, "osascript", "-e",
		`tell application "System Events" to get title of front window of (first application process whose frontmost is true)`)
	if err != nil {
		title = ""
	}
	return WindowInfo{App: app, Title: title}, nil
}

func runLine(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
