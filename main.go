package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spance/chimpchat-go/chimpchat"
	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/constants"
	"github.com/spance/chimpchat-go/utils"
)

// Config holds all the configuration values from command line arguments
type Config struct {
	ConfigFile     string `json:"config_file"`
	DeviceID       string `json:"device_id"`
	Port           int    `json:"port"`
	ConnectTimeout int    `json:"connect_timeout"`
	ADBPath        string `json:"adb_path"`
	Debug          bool   `json:"debug"`

	ListDevices bool   `json:"list_devices"`
	Connect     string `json:"connect"`
	Disconnect  string `json:"disconnect"`
	ListApps    bool   `json:"list_apps"`

	Tap       string `json:"tap"`
	Press     string `json:"press"`
	Type      string `json:"type"`
	Drag      string `json:"drag"`
	Steps     int    `json:"steps"`
	Duration  int    `json:"duration"`
	Shell     string `json:"shell"`
	GetVar    string `json:"getvar"`
	ListVar   bool   `json:"listvar"`
	ListViews bool   `json:"list_views"`

	Install   string `json:"install"`
	Uninstall string `json:"uninstall"`

	StartActivity bool     `json:"start_activity"`
	Broadcast     bool     `json:"broadcast"`
	Action        string   `json:"action"`
	Data          string   `json:"data"`
	Mime          string   `json:"mime"`
	Categories    []string `json:"categories"`
	Extras        []string `json:"extras"`
	Component     string   `json:"component"`
	Flags         int      `json:"flags"`
	URI           string   `json:"uri"`

	Instrument     string   `json:"instrument"`
	InstrumentArgs []string `json:"instrument_args"`
	Snapshot       string   `json:"snapshot"`
	Script         string   `json:"script"`
}

var rootCmd = &cobra.Command{
	Use:   "chimpchat",
	Short: "chimpchat - drive an Android device through the monkey service",
	Long: `chimpchat starts the monkey service on an Android device over adb,
connects to it and sends input events, variable and view queries. Shell,
package and intent operations go through adb directly.`,
	Example: `  # List connected devices
  go run main.go --list-devices

  # Tap, then type two lines
  go run main.go --tap 540,1200 --type "hello
world"

  # Drag from top to bottom in 20 steps over 800ms
  go run main.go --drag 540,300,540,1500 --steps 20 --duration 800

  # Start an activity with extras
  go run main.go --start-activity --action android.intent.action.VIEW \
    --data https://example.com --extra count=3 --extra verbose=true

  # Run instrumentation and print the results
  go run main.go --instrument com.example.test/androidx.test.runner.AndroidJUnitRunner \
    --instrument-arg class=com.example.FooTest

  # Run an automation script
  go run main.go --script login.chimp`,
	Run: func(cmd *cobra.Command, args []string) {
		log.Debug().Msgf("Configuration: %s", utils.JsonIndent(config))
	},
}

var config = &Config{}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func init() {
	bindFlags(rootCmd.PersistentFlags())
}

func bindFlags(flags *pflag.FlagSet) {
	// Connection options
	flags.StringVar(&config.ConfigFile, "config",
		getEnv("CHIMP_CONFIG", ""),
		"YAML file with monkey connection settings; flags override it")

	flags.StringVarP(&config.DeviceID, "device-id", "d",
		getEnv("CHIMP_DEVICE_ID", ""),
		"ADB device ID")

	flags.IntVar(&config.Port, "port",
		getEnvInt("CHIMP_PORT", definitions.DefaultPort),
		"Monkey service port, forwarded from the device")

	flags.IntVar(&config.ConnectTimeout, "connect-timeout",
		getEnvInt("CHIMP_CONNECT_TIMEOUT", int(definitions.DefaultConnectTimeout.Seconds())),
		"Seconds to wait for the monkey service to come up")

	flags.StringVar(&config.ADBPath, "adb-path",
		getEnv("CHIMP_ADB_PATH", definitions.DefaultADBPath),
		"Path to the adb binary")

	flags.BoolVar(&config.Debug, "debug", false,
		"Enable debug mode (default: false)")

	// Device manager options
	flags.BoolVar(&config.ListDevices, "list-devices", false,
		"List connected devices and exit")

	flags.StringVarP(&config.Connect, "connect", "c", "",
		"Connect to remote device (e.g., 192.168.1.100:5555)")

	flags.StringVar(&config.Disconnect, "disconnect", "",
		"Disconnect from remote device (or 'all' to disconnect all)")

	flags.BoolVar(&config.ListApps, "list-apps", false,
		"List app aliases usable in scripts and exit")

	// Monkey options
	flags.StringVar(&config.Tap, "tap", "", "Tap at x,y")
	flags.StringVar(&config.Press, "press", "", "Press a key (e.g., home, back, DPAD_DOWN)")
	flags.StringVar(&config.Type, "type", "", "Type text; newlines press enter")
	flags.StringVar(&config.Drag, "drag", "", "Drag from x1,y1 to x2,y2")
	flags.IntVar(&config.Steps, "steps", 10, "Number of moves in a drag")
	flags.IntVar(&config.Duration, "duration", 500, "Drag duration in milliseconds")
	flags.StringVar(&config.GetVar, "getvar", "", "Print a monkey variable")
	flags.BoolVar(&config.ListVar, "listvar", false, "List monkey variables")
	flags.BoolVar(&config.ListViews, "list-views", false, "List view ids of the current window")

	// Shell options
	flags.StringVar(&config.Shell, "shell", "", "Run a shell command on the device")
	flags.StringVar(&config.Install, "install", "", "Install an apk")
	flags.StringVar(&config.Uninstall, "uninstall", "", "Uninstall a package")
	flags.StringVar(&config.Snapshot, "snapshot", "", "Save a screenshot to this PNG file")

	// Intent options
	flags.BoolVar(&config.StartActivity, "start-activity", false, "Start an activity from the intent options")
	flags.BoolVar(&config.Broadcast, "broadcast", false, "Broadcast an intent from the intent options")
	flags.StringVar(&config.Action, "action", "", "Intent action")
	flags.StringVar(&config.Data, "data", "", "Intent data URI")
	flags.StringVar(&config.Mime, "mime", "", "Intent mime type")
	flags.StringArrayVar(&config.Categories, "category", nil, "Intent category (repeatable)")
	flags.StringArrayVar(&config.Extras, "extra", nil, "Intent extra key=value (repeatable)")
	flags.StringVar(&config.Component, "component", "", "Intent component (package/.Activity)")
	flags.IntVar(&config.Flags, "flags", 0, "Intent flags")
	flags.StringVar(&config.URI, "uri", "", "Intent URI")

	// Instrumentation and scripts
	flags.StringVar(&config.Instrument, "instrument", "", "Run instrumentation for package/runner")
	flags.StringArrayVar(&config.InstrumentArgs, "instrument-arg", nil, "Instrumentation argument key=value (repeatable)")
	flags.StringVar(&config.Script, "script", "", "Run an automation script file")
}

func main() {
	parseArgs()

	// Configure zerolog
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx := context.Background()

	if config.ListApps {
		log.Info().Msg("Supported app aliases:")
		for _, app := range constants.Aliases() {
			pkg, _ := constants.GetPackageByAlias(app)
			log.Info().Str("app", app).Str("package", pkg).Msg("-")
		}
		return
	}

	managerConfig, err := buildManagerConfig(rootCmd.PersistentFlags())
	if err != nil {
		log.Error().Err(err).Msg("loading config failed")
		os.Exit(1)
	}
	log.Debug().Msgf("Manager configuration: %s", utils.JsonIndent(managerConfig))

	device, err := chimpchat.CreateDevice(constants.ADB, config.DeviceID, managerConfig, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("creating device failed")
		os.Exit(1)
	}

	if hitCmd := handleDeviceCommands(ctx, device); hitCmd {
		return
	}

	if passed := checkSystemRequirements(managerConfig.ADBPath); !passed {
		log.Error().Msg("check system requirements failed")
		os.Exit(1)
	}

	chimp, err := chimpchat.NewChimpDevice(ctx, device, managerConfig, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("connecting to monkey failed")
		os.Exit(1)
	}
	if code := finishCommands(chimp, handleChimpCommands(ctx, chimp)); code != 0 {
		os.Exit(code)
	}
}

// finishCommands disposes the device and returns the process exit code for cmdErr.
func finishCommands(device interface{ Dispose() error }, cmdErr error) int {
	if err := device.Dispose(); err != nil {
		log.Warn().Err(err).Msg("dispose failed")
	}
	if cmdErr == nil {
		return 0
	}
	log.Error().Err(cmdErr).Msg("command failed")
	if errors.Is(cmdErr, definitions.ErrSessionClosed) {
		log.Info().Msg("the monkey session was closed; run the command again to reconnect")
	}
	return 1
}

func parseArgs() *Config {
	// Set pre-run validation
	rootCmd.PersistentPreRunE = validateArgs

	// Execute the command
	cobra.CheckErr(rootCmd.Execute())

	return config
}

// buildManagerConfig layers explicitly set flags over the config file, and
// the file over environment and flag defaults.
func buildManagerConfig(flags *pflag.FlagSet) (*definitions.ManagerConfig, error) {
	cfg := &definitions.ManagerConfig{}
	if config.ConfigFile != "" {
		loaded, err := definitions.LoadManagerConfig(config.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.Changed("port") || cfg.Port == 0 {
		cfg.Port = config.Port
	}
	if flags.Changed("connect-timeout") || cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = time.Duration(config.ConnectTimeout) * time.Second
	}
	if flags.Changed("adb-path") || cfg.ADBPath == "" {
		cfg.ADBPath = config.ADBPath
	}
	return cfg.WithDefaults(), nil
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}
	if config.ConnectTimeout <= 0 {
		return fmt.Errorf("invalid connect timeout: %d", config.ConnectTimeout)
	}
	if config.Steps < 1 {
		return fmt.Errorf("invalid steps: %d. Must be at least 1", config.Steps)
	}
	if config.Duration < 0 {
		return fmt.Errorf("invalid duration: %d", config.Duration)
	}
	if config.Tap != "" {
		if xy, err := utils.ParseInts(config.Tap); err != nil || len(xy) != 2 {
			return fmt.Errorf("invalid tap coordinates: %q. Must be x,y", config.Tap)
		}
	}
	if config.Drag != "" {
		if xy, err := utils.ParseInts(config.Drag); err != nil || len(xy) != 4 {
			return fmt.Errorf("invalid drag coordinates: %q. Must be x1,y1,x2,y2", config.Drag)
		}
	}
	if config.StartActivity && config.Broadcast {
		return errors.New("--start-activity and --broadcast are mutually exclusive")
	}
	for _, kv := range append(append([]string{}, config.Extras...), config.InstrumentArgs...) {
		if _, _, ok := utils.ParseKeyValue(kv); !ok {
			return fmt.Errorf("invalid key=value argument: %q", kv)
		}
	}
	return nil
}

func handleDeviceCommands(ctx context.Context, device chimpchat.Device) bool {
	if config.ListDevices {
		devices, err := device.ListDevices(ctx)
		if err != nil {
			log.Error().Err(err).Msg("list devices failed")
			return true
		}
		if len(devices) == 0 {
			log.Info().Msg("No devices connected.")
			return true
		}
		log.Info().Msg("Connected devices:")
		log.Info().Msg(strings.Repeat("-", 60))
		for _, d := range devices {
			modelInfo := ""
			if d.Model != "" {
				modelInfo = fmt.Sprintf(" (%s)", d.Model)
			}
			log.Info().Str("device", fmt.Sprintf("  %-30s %-10s [%s]%s", d.DeviceID, d.Status, d.ConnectionType, modelInfo)).Msg("")
		}
		return true
	}

	if config.Connect != "" {
		log.Info().Msgf("Connecting to %s...", config.Connect)
		message, err := device.Connect(ctx, config.Connect)
		if err != nil {
			log.Error().Err(err).Str("msg", message).Msg("connect failed")
		} else {
			log.Info().Str("msg", message).Msg("connect")
		}
		return true
	}

	if config.Disconnect != "" {
		address := config.Disconnect
		if address == "all" {
			log.Info().Msg("Disconnecting all remote devices...")
			address = ""
		} else {
			log.Info().Msgf("Disconnecting from %s...", address)
		}
		message, err := device.Disconnect(ctx, address)
		if err != nil {
			log.Error().Err(err).Str("msg", message).Msg("disconnect failed")
		} else {
			log.Info().Str("msg", message).Msg("disconnect")
		}
		return true
	}

	// device handle operations that do not need the monkey service
	if config.Snapshot != "" {
		data, err := device.Screenshot(ctx)
		if err != nil {
			log.Error().Err(err).Msg("snapshot failed")
			return true
		}
		if err := os.WriteFile(config.Snapshot, data, 0o644); err != nil {
			log.Error().Err(err).Str("file", config.Snapshot).Msg("writing snapshot failed")
			return true
		}
		log.Info().Str("file", config.Snapshot).Int("bytes", len(data)).Msg("snapshot saved")
		return true
	}

	return false
}

func buildIntent() definitions.IntentSpec {
	return definitions.IntentSpec{
		URI:        config.URI,
		Action:     config.Action,
		Data:       config.Data,
		MimeType:   config.Mime,
		Categories: config.Categories,
		Extras:     parseKeyValues(config.Extras),
		Component:  config.Component,
		Flags:      config.Flags,
	}
}

func parseKeyValues(pairs []string) map[string]any {
	return lo.Associate(pairs, func(kv string) (string, any) {
		key, value, _ := utils.ParseKeyValue(kv)
		return key, utils.ParseExtraValue(value)
	})
}

func handleChimpCommands(ctx context.Context, chimp *chimpchat.ChimpDevice) error {
	if config.Script != "" {
		f, err := os.Open(config.Script)
		if err != nil {
			return err
		}
		defer f.Close()
		result, err := chimpchat.NewRunner(chimp, log.Logger).Run(ctx, f)
		if err != nil {
			return err
		}
		log.Info().Msgf("Result: %s", result)
		return nil
	}

	if config.Tap != "" {
		xy, _ := utils.ParseInts(config.Tap)
		if err := chimp.Touch(xy[0], xy[1], definitions.DownAndUp); err != nil {
			return err
		}
	}

	if config.Drag != "" {
		xy, _ := utils.ParseInts(config.Drag)
		start := definitions.Point{X: xy[0], Y: xy[1]}
		end := definitions.Point{X: xy[2], Y: xy[3]}
		if err := chimp.Drag(ctx, start, end, config.Steps, time.Duration(config.Duration)*time.Millisecond); err != nil {
			return err
		}
	}

	if config.Press != "" {
		if err := chimp.Press(config.Press, definitions.DownAndUp); err != nil {
			return err
		}
	}

	if config.Type != "" {
		if err := chimp.Type(config.Type); err != nil {
			return err
		}
	}

	if config.GetVar != "" {
		value, err := chimp.GetProperty(config.GetVar)
		if err != nil {
			return err
		}
		fmt.Println(value)
	}

	if config.ListVar {
		names, err := chimp.GetPropertyList()
		if err != nil {
			return err
		}
		if err := utils.WriteJSON(os.Stdout, names); err != nil {
			return err
		}
	}

	if config.ListViews {
		ids, err := chimp.GetViewIdList()
		if err != nil {
			return err
		}
		if err := utils.WriteJSON(os.Stdout, ids); err != nil {
			return err
		}
	}

	if config.Shell != "" {
		output, err := chimp.Shell(ctx, config.Shell)
		if err != nil {
			return err
		}
		fmt.Print(output)
	}

	if config.Install != "" {
		if !chimp.InstallPackage(ctx, config.Install) {
			return fmt.Errorf("install %s failed", config.Install)
		}
		log.Info().Str("apk", config.Install).Msg("installed")
	}

	if config.Uninstall != "" {
		if !chimp.RemovePackage(ctx, config.Uninstall) {
			return fmt.Errorf("uninstall %s failed", config.Uninstall)
		}
		log.Info().Str("package", config.Uninstall).Msg("uninstalled")
	}

	if config.StartActivity || config.Broadcast {
		run := chimp.StartActivity
		if config.Broadcast {
			run = chimp.BroadcastIntent
		}
		output, err := run(ctx, buildIntent())
		if err != nil {
			return err
		}
		fmt.Print(output)
	}

	if config.Instrument != "" {
		result, err := chimp.Instrument(ctx, config.Instrument, parseKeyValues(config.InstrumentArgs))
		if result != nil {
			if werr := utils.WriteJSON(os.Stdout, result); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func checkSystemRequirements(adbPath string) bool {
	log.Debug().Msgf("Checking adb installation (%s)...", adbPath)
	if _, err := exec.LookPath(adbPath); err != nil {
		log.Error().Err(err).Msgf("%s is not installed or not in PATH", adbPath)
		log.Info().Msg("   Solution: Install adb:")
		log.Info().Msg("     - macOS: brew install android-platform-tools")
		log.Info().Msg("     - Linux: sudo apt install android-tools-adb")
		log.Info().Msg("     - Windows: Download from https://developer.android.com/studio/releases/platform-tools")
		return false
	}
	return true
}
