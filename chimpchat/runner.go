package chimpchat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
	"github.com/spance/chimpchat-go/chimpchat/helper"
	"github.com/spance/chimpchat-go/constants"
	"github.com/spance/chimpchat-go/utils"
)

const (
	defaultSwipeSteps     = 10
	defaultSwipeDuration  = 500 * time.Millisecond
	defaultLongPress      = 3000 * time.Millisecond
	defaultDoubleTapPause = 100 * time.Millisecond
)

// Runner executes automation scripts against a ChimpDevice, one action per line.
type Runner struct {
	Device    *ChimpDevice
	StepCount int
	logger    zerolog.Logger
}

func NewRunner(device *ChimpDevice, logger zerolog.Logger) *Runner {
	return &Runner{
		Device: device,
		logger: logger,
	}
}

type StepResult struct {
	Success  bool
	Finished bool
	Action   helper.Action
	Message  string
}

// Run executes script until a finish() action or the end of input and
// returns the finish message. The first failing step stops the run.
func (r *Runner) Run(ctx context.Context, script io.Reader) (string, error) {
	scanner := bufio.NewScanner(script)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		result, err := r.ExecuteStep(ctx, line)
		if err != nil {
			r.logger.Error().Int("line", lineNo).Err(err).Msg("Failed to execute step")
			return "", fmt.Errorf("line %d: %w", lineNo, err)
		}
		if result.Finished {
			return result.Message, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "Script completed", nil
}

func (r *Runner) ExecuteStep(ctx context.Context, line string) (*StepResult, error) {
	r.StepCount += 1

	action, err := helper.ParseAction(line)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Int("step", r.StepCount).Str("details", utils.JsonString(action)).Msg("parsed action")

	result, err := r.ExecuteAction(ctx, action)
	if err != nil {
		return nil, err
	}
	result.Action = action
	return result, nil
}

func (r *Runner) ExecuteAction(ctx context.Context, action helper.Action) (*StepResult, error) {
	switch action.Kind() {
	case "finish":
		return &StepResult{Success: true, Finished: true, Message: action.String("message")}, nil
	case "do":
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", definitions.ErrInvalidArgument, action.Kind())
	}

	switch actionName := action.Name(); actionName {
	case "Launch":
		return r.handleLaunch(ctx, action)
	case "Tap":
		return r.handleTap(ctx, action)
	case "Type":
		return r.handleType(ctx, action)
	case "Swipe":
		return r.handleSwipe(ctx, action)
	case "Back":
		return r.handleButton(definitions.Back)
	case "Home":
		return r.handleButton(definitions.Home)
	case "Press":
		return r.handlePress(ctx, action)
	case "Double Tap":
		return r.handleDoubleTap(ctx, action)
	case "Long Press":
		return r.handleLongPress(ctx, action)
	case "Wait":
		return r.handleWait(ctx, action)
	case "Shell":
		return r.handleShell(ctx, action)
	default:
		return nil, fmt.Errorf("%w: unknown action name %q", definitions.ErrInvalidArgument, actionName)
	}
}

func (r *Runner) handleLaunch(ctx context.Context, action helper.Action) (*StepResult, error) {
	appName := action.String("app")
	if len(appName) == 0 {
		return nil, fmt.Errorf("%w: no app name specified", definitions.ErrInvalidArgument)
	}

	packageName := constants.ResolvePackage(appName)
	output, err := r.Device.Shell(ctx, constants.LaunchCommand(packageName))
	if err != nil {
		return nil, err
	}
	if strings.Contains(output, "No activities found") {
		return nil, &definitions.CommandError{
			Kind:    definitions.ErrRemoteRejected,
			Verb:    "launch",
			Command: constants.LaunchCommand(packageName),
			Remote:  strings.TrimSpace(output),
		}
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleTap(ctx context.Context, action helper.Action) (*StepResult, error) {
	p, err := action.Point("element")
	if err != nil {
		return nil, err
	}
	if err := r.Device.Touch(p.X, p.Y, definitions.DownAndUp); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleType(ctx context.Context, action helper.Action) (*StepResult, error) {
	if err := r.Device.Type(action.String("text")); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleSwipe(ctx context.Context, action helper.Action) (*StepResult, error) {
	start, err := action.Point("start")
	if err != nil {
		return nil, err
	}
	end, err := action.Point("end")
	if err != nil {
		return nil, err
	}
	steps := action.Int("steps", defaultSwipeSteps)
	duration := time.Duration(action.Int("duration", int(defaultSwipeDuration.Milliseconds()))) * time.Millisecond
	if err := r.Device.Drag(ctx, start, end, steps, duration); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleButton(button definitions.PhysicalButton) (*StepResult, error) {
	if err := r.Device.PressButton(button, definitions.DownAndUp); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handlePress(ctx context.Context, action helper.Action) (*StepResult, error) {
	key := action.String("key")
	if key == "" {
		return nil, fmt.Errorf("%w: no key specified", definitions.ErrInvalidArgument)
	}
	if err := r.Device.Press(key, definitions.DownAndUp); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleDoubleTap(ctx context.Context, action helper.Action) (*StepResult, error) {
	p, err := action.Point("element")
	if err != nil {
		return nil, err
	}
	if err := r.Device.Touch(p.X, p.Y, definitions.DownAndUp); err != nil {
		return nil, err
	}
	if err := sleepContext(ctx, defaultDoubleTapPause); err != nil {
		return nil, err
	}
	if err := r.Device.Touch(p.X, p.Y, definitions.DownAndUp); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

// handleLongPress holds a touch in place by dragging from the point to itself.
func (r *Runner) handleLongPress(ctx context.Context, action helper.Action) (*StepResult, error) {
	p, err := action.Point("element")
	if err != nil {
		return nil, err
	}
	duration := time.Duration(action.Int("duration", int(defaultLongPress.Milliseconds()))) * time.Millisecond
	if err := r.Device.Drag(ctx, p, p, 1, duration); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleWait(ctx context.Context, action helper.Action) (*StepResult, error) {
	durationStr := strings.TrimSpace(strings.ReplaceAll(action.String("duration"), "seconds", ""))
	seconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		r.logger.Warn().Int("step", r.StepCount).Err(err).Msg("failed to parse duration, using default 1.0s")
		seconds = 1.0
	}
	if err := sleepContext(ctx, time.Duration(seconds*float64(time.Second))); err != nil {
		return nil, err
	}
	return &StepResult{Success: true}, nil
}

func (r *Runner) handleShell(ctx context.Context, action helper.Action) (*StepResult, error) {
	command := action.String("command")
	if command == "" {
		return nil, fmt.Errorf("%w: no shell command specified", definitions.ErrInvalidArgument)
	}
	output, err := r.Device.Shell(ctx, command)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Int("step", r.StepCount).Str("cmd", command).Str("output", output).Msg("shell")
	return &StepResult{Success: true, Message: output}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
