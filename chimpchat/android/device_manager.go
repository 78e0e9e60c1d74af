package android

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

// ADBDevice is a device handle backed by the adb command line tool.
// An empty DeviceID lets adb pick the only attached device.
type ADBDevice struct {
	DeviceID string
	ADBPath  string
	logger   zerolog.Logger
}

func NewADBDevice(deviceID, adbPath string, logger zerolog.Logger) *ADBDevice {
	if adbPath == "" {
		adbPath = definitions.DefaultADBPath
	}
	return &ADBDevice{
		DeviceID: deviceID,
		ADBPath:  adbPath,
		logger:   logger.With().Str("device", deviceID).Logger(),
	}
}

func (r *ADBDevice) GetADBPrefix() []string {
	if r.DeviceID != "" {
		return []string{r.ADBPath, "-s", r.DeviceID}
	}
	return []string{r.ADBPath}
}

// run executes one adb invocation and returns its combined output.
func (r *ADBDevice) run(ctx context.Context, op string, timeout time.Duration, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.logger.Debug().Str("cmd", fmt.Sprintf("[%s] run cmd: %s %s", op, r.ADBPath, strings.Join(args, " "))).Msg("")

	rawOutput, err := exec.CommandContext(ctx, r.ADBPath, args...).CombinedOutput()
	if err != nil {
		r.logger.Error().Err(err).Str("output", string(rawOutput)).Msgf("[%s] run cmd failed", op)
		return rawOutput, &definitions.CommandError{
			Kind:    definitions.ErrTransportFailure,
			Verb:    op,
			Command: strings.Join(args, " "),
			Remote:  strings.TrimSpace(string(rawOutput)),
			Err:     err,
		}
	}

	r.logger.Debug().Str("output", string(rawOutput)).Msgf("[%s] raw output", op)
	return rawOutput, nil
}

func (r *ADBDevice) Connect(ctx context.Context, address string) (string, error) {
	rawOutput, err := r.run(ctx, "Connect", 5*time.Second, "connect", address)
	if err != nil {
		return fmt.Sprintf("Connect error: %v", err), err
	}

	lowerOutput := strings.ToLower(string(rawOutput))
	if strings.Contains(lowerOutput, "already connected") {
		return fmt.Sprintf("Already connected to %s", address), nil
	}
	if strings.Contains(lowerOutput, "connected to") {
		return fmt.Sprintf("Connected to %s", address), nil
	}

	return fmt.Sprintf("Connection error: %s", strings.TrimSpace(string(rawOutput))), nil
}

func (r *ADBDevice) Disconnect(ctx context.Context, address string) (string, error) {
	cmdArgs := []string{"disconnect"}
	if len(address) > 0 {
		cmdArgs = append(cmdArgs, address)
	}
	rawOutput, err := r.run(ctx, "Disconnect", 5*time.Second, cmdArgs...)
	if err != nil {
		return fmt.Sprintf("Disconnect error: %v", err), err
	}
	return strings.TrimSpace(string(rawOutput)), nil
}

func (r *ADBDevice) ListDevices(ctx context.Context) ([]definitions.DeviceInfo, error) {
	rawOutput, err := r.run(ctx, "ListDevices", 5*time.Second, "devices", "-l")
	if err != nil {
		return nil, err
	}
	return parseDeviceList(string(rawOutput)), nil
}

func parseDeviceList(output string) []definitions.DeviceInfo {
	var devices []definitions.DeviceInfo
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		deviceID := parts[0]
		connType := definitions.USB
		if strings.Contains(deviceID, ":") {
			connType = definitions.Remote
		}

		info := definitions.DeviceInfo{
			DeviceID:       deviceID,
			Status:         parts[1],
			ConnectionType: connType,
		}
		for _, part := range parts[2:] {
			key, value, ok := strings.Cut(part, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				info.Model = value
			case "product":
				info.Product = value
			}
		}
		devices = append(devices, info)
	}
	return devices
}

// CreateForward forwards localPort on this host to remotePort on the device.
func (r *ADBDevice) CreateForward(ctx context.Context, localPort, remotePort int) error {
	args := append(r.GetADBPrefix()[1:], "forward",
		"tcp:"+strconv.Itoa(localPort),
		"tcp:"+strconv.Itoa(remotePort),
	)
	_, err := r.run(ctx, "CreateForward", 10*time.Second, args...)
	return err
}

// GetProperty reads a system property with getprop.
func (r *ADBDevice) GetProperty(ctx context.Context, key string) (string, error) {
	args := append(r.GetADBPrefix()[1:], "shell", "getprop", key)
	rawOutput, err := r.run(ctx, "GetProperty", definitions.DefaultShellTimeout, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(rawOutput)), nil
}

// Reboot restarts the device, optionally into "bootloader" or "recovery".
func (r *ADBDevice) Reboot(ctx context.Context, into string) error {
	args := append(r.GetADBPrefix()[1:], "reboot")
	if into != "" {
		args = append(args, into)
	}
	_, err := r.run(ctx, "Reboot", 30*time.Second, args...)
	return err
}
