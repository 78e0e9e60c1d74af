package chimpchat

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/android"
	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/manager"
	"github.com/spance/chimpchat-go/constants"
)

// DeviceHandle is the transport a ChimpDevice drives: port forwarding and
// shell execution for the monkey service, plus package, screenshot and
// property access.
type DeviceHandle interface {
	manager.ServiceHost
	InstallPackage(ctx context.Context, path string) error
	UninstallPackage(ctx context.Context, packageName string) error
	Screenshot(ctx context.Context) ([]byte, error)
	GetProperty(ctx context.Context, key string) (string, error)
	Reboot(ctx context.Context, into string) error
}

// DeviceManager covers bridge operations that are not tied to one device.
type DeviceManager interface {
	Connect(ctx context.Context, address string) (string, error)
	Disconnect(ctx context.Context, address string) (string, error)
	ListDevices(ctx context.Context) ([]definitions.DeviceInfo, error)
}

type Device interface {
	DeviceHandle
	DeviceManager
}

func CreateDevice(deviceType, deviceID string, cfg *definitions.ManagerConfig, logger zerolog.Logger) (Device, error) {
	switch deviceType {
	case constants.ADB:
		return android.NewADBDevice(deviceID, cfg.WithDefaults().ADBPath, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown device type %q", definitions.ErrInvalidArgument, deviceType)
	}
}
