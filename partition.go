package mandelbrot

import (
	"errors"
	"fmt"
	"slices"
)

// Partition errors. All are returned before any work is dispatched.
var (
	ErrNoWorkers        = errors.New("mandelbrot: worker count must be at least 1")
	ErrInvalidPixelStep = errors.New("mandelbrot: pixel step must be at least 1")
	ErrInvertedUnit     = errors.New("mandelbrot: work unit has RowEnd < RowStart")
	ErrPartitionCover   = errors.New("mandelbrot: work units do not cover the frame exactly")
)

// WorkUnit is the half-open row range [RowStart, RowEnd) of one tile.
// Rows are evaluated in blocks of PixelStep starting at RowStart.
type WorkUnit struct {
	RowStart  int
	RowEnd    int
	PixelStep int
}

// Rows returns the number of rows in the unit.
func (u WorkUnit) Rows() int { return u.RowEnd - u.RowStart }

// Empty reports whether the unit contributes no rows.
func (u WorkUnit) Empty() bool { return u.RowEnd <= u.RowStart }

func (u WorkUnit) String() string {
	return fmt.Sprintf("rows [%d, %d) step %d", u.RowStart, u.RowEnd, u.PixelStep)
}

// Partition splits [0, plotHeight) into exactly workerCount units. Each
// non-final unit spans a whole number of pixel-step blocks, so coarsened
// blocks never straddle two tiles. Trailing units may be empty when the
// height is small relative to the worker count.
func Partition(plotHeight, pixelStep, workerCount int) ([]WorkUnit, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, workerCount)
	}
	if pixelStep < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPixelStep, pixelStep)
	}
	if plotHeight < 0 {
		return nil, fmt.Errorf("%w: negative height %d", ErrPartitionCover, plotHeight)
	}

	blockRows := pixelStep * workerCount
	rowsPerWorker := (plotHeight + blockRows - 1) / blockRows
	span := rowsPerWorker * pixelStep

	units := make([]WorkUnit, workerCount)
	for i := range units {
		start := min(i*span, plotHeight)
		end := min((i+1)*span, plotHeight)
		units[i] = WorkUnit{RowStart: start, RowEnd: end, PixelStep: pixelStep}
	}
	return units, nil
}

// FullFrame returns the single unit used by the hardware path.
func FullFrame(plotHeight, pixelStep int) WorkUnit {
	return WorkUnit{RowStart: 0, RowEnd: plotHeight, PixelStep: max(pixelStep, 1)}
}

// ValidateCover checks that units are individually well-formed and that
// together they cover [0, plotHeight) once, in order.
func ValidateCover(units []WorkUnit, plotHeight int) error {
	next := 0
	for i, u := range units {
		if u.RowEnd < u.RowStart {
			return fmt.Errorf("%w: unit %d is %v", ErrInvertedUnit, i, u)
		}
		if u.PixelStep < 1 {
			return fmt.Errorf("%w: unit %d", ErrInvalidPixelStep, i)
		}
		if u.Empty() {
			continue
		}
		if u.RowStart != next {
			return fmt.Errorf("%w: unit %d starts at %d, want %d", ErrPartitionCover, i, u.RowStart, next)
		}
		next = u.RowEnd
	}
	if next != plotHeight {
		return fmt.Errorf("%w: covered [0, %d) of [0, %d)", ErrPartitionCover, next, plotHeight)
	}
	return nil
}

// NonEmpty returns the units that contain rows, preserving order.
func NonEmpty(units []WorkUnit) []WorkUnit {
	return slices.DeleteFunc(slices.Clone(units), WorkUnit.Empty)
}
