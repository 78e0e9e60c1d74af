package helper

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/spance/chimpchat-go/chimpchat/definitions"
)

// Emission is one touch event of a drag, followed by Pause of idle time.
type Emission struct {
	Action definitions.TouchPressType
	Point  definitions.Point
	Pause  time.Duration
}

func lerp(start, stop int, amount float64) int {
	return int(math.Round(float64(start) + float64(stop-start)*amount))
}

// Interpolate returns steps+1 evenly spaced points from start to end inclusive.
func Interpolate(start, end definitions.Point, steps int) ([]definitions.Point, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: drag steps must be >= 1, got %d", definitions.ErrInvalidArgument, steps)
	}
	points := make([]definitions.Point, 0, steps+1)
	points = append(points, start)
	amount := 1.0 / float64(steps)
	for i := 1; i < steps; i++ {
		points = append(points, definitions.Point{
			X: lerp(start.X, end.X, amount*float64(i)),
			Y: lerp(start.Y, end.Y, amount*float64(i)),
		})
	}
	return append(points, end), nil
}

// DragSequence yields the events of a drag: down and move at start, a move
// per intermediate point, then move and up at end. Every move except the
// last is followed by duration/steps of idle time.
func DragSequence(start, end definitions.Point, steps int, duration time.Duration) (iter.Seq[Emission], error) {
	points, err := Interpolate(start, end, steps)
	if err != nil {
		return nil, err
	}
	pause := duration / time.Duration(steps)

	return func(yield func(Emission) bool) {
		if !yield(Emission{Action: definitions.Down, Point: start}) {
			return
		}
		last := len(points) - 1
		for i, p := range points {
			e := Emission{Action: definitions.Move, Point: p, Pause: pause}
			if i == last {
				e.Pause = 0
			}
			if !yield(e) {
				return
			}
		}
		yield(Emission{Action: definitions.Up, Point: end})
	}, nil
}
