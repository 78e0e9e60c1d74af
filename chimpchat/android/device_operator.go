package android

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

// outputWatch forwards shell output and reports every write.
type outputWatch struct {
	mu      sync.Mutex
	w       io.Writer
	onWrite func()
}

func (o *outputWatch) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.onWrite != nil {
		o.onWrite()
	}
	return o.w.Write(p)
}

// ExecuteShell runs command through `adb shell`, streaming combined output to
// sink. With a positive timeout the command fails with ErrCommandTimeout when
// it produces no output for that long; zero disables the watchdog.
func (r *ADBDevice) ExecuteShell(ctx context.Context, command string, sink io.Writer, timeout time.Duration) error {
	if sink == nil {
		sink = io.Discard
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := append(r.GetADBPrefix(), "shell", command)
	r.logger.Debug().Str("cmd", fmt.Sprintf("[ExecuteShell] run cmd: %s", strings.Join(args, " "))).Msg("")

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.WaitDelay = time.Second
	out := &outputWatch{w: sink}

	var timedOut atomic.Bool
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			timedOut.Store(true)
			cancel()
		})
		defer timer.Stop()
		out.onWrite = func() { timer.Reset(timeout) }
	}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	switch {
	case timedOut.Load():
		r.logger.Error().Str("cmd", command).Dur("timeout", timeout).Msg("[ExecuteShell] no output before timeout")
		return &definitions.CommandError{
			Kind:    definitions.ErrCommandTimeout,
			Verb:    "shell",
			Command: command,
			Err:     fmt.Errorf("no output for %v", timeout),
		}
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("shell %q: %w", command, ctx.Err())
	default:
		r.logger.Error().Err(err).Str("cmd", command).Msg("[ExecuteShell] run cmd failed")
		return &definitions.CommandError{
			Kind:    definitions.ErrTransportFailure,
			Verb:    "shell",
			Command: command,
			Err:     err,
		}
	}
}

// InstallPackage installs (or reinstalls) the apk at path. adb reports
// failures in its output, which is returned as the remote text of the error.
func (r *ADBDevice) InstallPackage(ctx context.Context, path string) error {
	args := append(r.GetADBPrefix()[1:], "install", "-r", path)
	rawOutput, err := r.run(ctx, "InstallPackage", 5*time.Minute, args...)
	if err != nil {
		return err
	}
	return checkPackageOutput("install", path, string(rawOutput))
}

func (r *ADBDevice) UninstallPackage(ctx context.Context, packageName string) error {
	args := append(r.GetADBPrefix()[1:], "uninstall", packageName)
	rawOutput, err := r.run(ctx, "UninstallPackage", time.Minute, args...)
	if err != nil {
		return err
	}
	return checkPackageOutput("uninstall", packageName, string(rawOutput))
}

func checkPackageOutput(verb, target, output string) error {
	if strings.Contains(output, "Success") {
		return nil
	}
	return &definitions.CommandError{
		Kind:    definitions.ErrRemoteRejected,
		Verb:    verb,
		Command: verb + " " + target,
		Remote:  strings.TrimSpace(output),
	}
}

// Screenshot captures the screen as PNG bytes.
func (r *ADBDevice) Screenshot(ctx context.Context) ([]byte, error) {
	name := fmt.Sprintf("screenshot_%s.png", uuid.New().String())
	remotePath := "/sdcard/" + name
	localPath := filepath.Join(os.TempDir(), name)
	defer func() {
		_ = os.Remove(localPath)
	}()

	prefix := r.GetADBPrefix()[1:]

	captureArgs := append(append([]string{}, prefix...), "shell", "screencap", "-p", remotePath)
	output, err := r.run(ctx, "Screenshot", 10*time.Second, captureArgs...)
	if err != nil {
		return nil, err
	}
	if outputStr := string(output); strings.Contains(outputStr, "Status: -1") || strings.Contains(outputStr, "Failed") {
		return nil, &definitions.CommandError{
			Kind:    definitions.ErrRemoteRejected,
			Verb:    "screencap",
			Command: strings.Join(captureArgs, " "),
			Remote:  strings.TrimSpace(outputStr),
		}
	}

	pullArgs := append(append([]string{}, prefix...), "pull", remotePath, localPath)
	if _, err := r.run(ctx, "Screenshot", 10*time.Second, pullArgs...); err != nil {
		return nil, err
	}

	rmArgs := append(append([]string{}, prefix...), "shell", "rm", "-f", remotePath)
	if _, err := r.run(ctx, "Screenshot", 5*time.Second, rmArgs...); err != nil {
		r.logger.Warn().Err(err).Str("path", remotePath).Msg("[Screenshot] failed to remove remote file")
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	return data, nil
}
