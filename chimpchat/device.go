package chimpchat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/helper"
	"github.com/spance/chimpchat-go/chimpchat/manager"
	"github.com/spance/chimpchat-go/chimpchat/view"
)

// ChimpDevice is the automation surface of one device. Input events and
// variable and view queries go over the monkey session; shell, packages,
// intents and snapshots go through the DeviceHandle.
type ChimpDevice struct {
	handle  DeviceHandle
	session *manager.Session
	config  *definitions.ManagerConfig
	logger  zerolog.Logger
}

// NewChimpDevice starts the monkey service on the device behind handle and
// connects to it.
func NewChimpDevice(ctx context.Context, handle DeviceHandle, cfg *definitions.ManagerConfig, logger zerolog.Logger) (*ChimpDevice, error) {
	cfg = cfg.WithDefaults()
	session, err := manager.NewEstablisher(handle, cfg, logger).Establish(ctx)
	if err != nil {
		return nil, err
	}
	return &ChimpDevice{
		handle:  handle,
		session: session,
		config:  cfg,
		logger:  logger,
	}, nil
}

func (d *ChimpDevice) Session() *manager.Session {
	return d.session
}

func (d *ChimpDevice) Wake() error {
	return d.session.Wake()
}

func (d *ChimpDevice) Touch(x, y int, pressType definitions.TouchPressType) error {
	return d.session.Touch(x, y, pressType)
}

func (d *ChimpDevice) Press(keyName string, pressType definitions.TouchPressType) error {
	return d.session.Key(keyName, pressType)
}

func (d *ChimpDevice) PressButton(button definitions.PhysicalButton, pressType definitions.TouchPressType) error {
	return d.Press(button.KeyName(), pressType)
}

func (d *ChimpDevice) Type(text string) error {
	return d.session.Type(text)
}

// Drag moves a touch from start to end in steps moves spread over duration.
// A failed event is logged and the gesture continues with the next one.
// Cancelling ctx ends the gesture early with a touch up at the last point sent.
func (d *ChimpDevice) Drag(ctx context.Context, start, end definitions.Point, steps int, duration time.Duration) error {
	seq, err := helper.DragSequence(start, end, steps, duration)
	if err != nil {
		return err
	}

	var last definitions.Point
	for e := range seq {
		d.dragEvent(e.Action, e.Point)
		last = e.Point
		if e.Pause <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			d.dragEvent(definitions.Up, last)
			return ctx.Err()
		case <-time.After(e.Pause):
		}
	}
	return nil
}

func (d *ChimpDevice) dragEvent(action definitions.TouchPressType, p definitions.Point) {
	if err := d.session.Touch(p.X, p.Y, action); err != nil {
		d.logger.Warn().Err(err).Str("action", action.String()).
			Int("x", p.X).Int("y", p.Y).Msg("[Drag] touch event failed")
	}
}

// GetProperty reads a monkey variable (getvar).
func (d *ChimpDevice) GetProperty(key string) (string, error) {
	return d.session.GetVariable(key)
}

func (d *ChimpDevice) GetPropertyList() ([]string, error) {
	return d.session.ListVariables()
}

// GetSystemProperty reads an Android system property through the device handle.
func (d *ChimpDevice) GetSystemProperty(ctx context.Context, key string) (string, error) {
	return d.handle.GetProperty(ctx, key)
}

func (d *ChimpDevice) GetViewIdList() ([]string, error) {
	return d.session.ListViewIDs()
}

func (d *ChimpDevice) GetRootView() (*view.View, error) {
	return d.session.GetRootView()
}

func (d *ChimpDevice) GetView(selector view.Selector) (*view.View, error) {
	return selector.View(d.session)
}

func (d *ChimpDevice) GetViews(selector view.MultiSelector) ([]*view.View, error) {
	return selector.Views(d.session)
}

// Shell runs command with the configured shell timeout.
func (d *ChimpDevice) Shell(ctx context.Context, command string) (string, error) {
	return d.ShellTimeout(ctx, command, d.config.ShellTimeout)
}

// ShellTimeout runs command and returns its combined output. timeout bounds
// the time without output, not the total run time.
func (d *ChimpDevice) ShellTimeout(ctx context.Context, command string, timeout time.Duration) (string, error) {
	var out strings.Builder
	err := d.handle.ExecuteShell(ctx, command, &out, timeout)
	return out.String(), err
}

func (d *ChimpDevice) InstallPackage(ctx context.Context, path string) bool {
	if err := d.handle.InstallPackage(ctx, path); err != nil {
		d.logger.Error().Err(err).Str("path", path).Msg("[InstallPackage] install failed")
		return false
	}
	return true
}

func (d *ChimpDevice) RemovePackage(ctx context.Context, packageName string) bool {
	if err := d.handle.UninstallPackage(ctx, packageName); err != nil {
		d.logger.Error().Err(err).Str("package", packageName).Msg("[RemovePackage] uninstall failed")
		return false
	}
	return true
}

func (d *ChimpDevice) StartActivity(ctx context.Context, intent definitions.IntentSpec) (string, error) {
	return d.am(ctx, "start", intent)
}

func (d *ChimpDevice) BroadcastIntent(ctx context.Context, intent definitions.IntentSpec) (string, error) {
	return d.am(ctx, "broadcast", intent)
}

func (d *ChimpDevice) am(ctx context.Context, verb string, intent definitions.IntentSpec) (string, error) {
	args := append([]string{"am", verb}, helper.BuildIntentArgs(intent)...)
	return d.Shell(ctx, strings.Join(args, " "))
}

// Instrument runs an instrumentation and returns its INSTRUMENTATION_RESULT pairs.
func (d *ChimpDevice) Instrument(ctx context.Context, packageName string, args map[string]any) (map[string]string, error) {
	output, err := d.Shell(ctx, strings.Join(helper.BuildInstrumentArgs(packageName, args), " "))
	if err != nil {
		return nil, err
	}
	return helper.ParseInstrumentResult(output)
}

// TakeSnapshot returns the current screen as PNG bytes.
func (d *ChimpDevice) TakeSnapshot(ctx context.Context) ([]byte, error) {
	return d.handle.Screenshot(ctx)
}

func (d *ChimpDevice) Reboot(ctx context.Context, into string) error {
	return d.handle.Reboot(ctx, into)
}

// Dispose asks the monkey service to exit, then closes the session, which
// also stops the service's shell.
func (d *ChimpDevice) Dispose() error {
	if err := d.session.Quit(); err != nil {
		d.logger.Warn().Err(err).Msg("[Dispose] quit failed")
	}
	return d.session.Close()
}
