package query

import "github.com/pkg/errors"

var (
	// ErrNodeNotFound means the start or goal is not in the graph.
	ErrNodeNotFound = errors.New("query: node not in graph")
	// ErrCellNotFound means the start or goal is not a free grid cell.
	ErrCellNotFound = errors.New("query: cell not in grid")
	// ErrCellOutOfRange is returned when adding a cell outside the map size.
	ErrCellOutOfRange = errors.New("query: cell outside grid size")
	// ErrNoPath means the open set emptied before the goal was reached.
	ErrNoPath = errors.New("query: no path")
	// ErrIterationLimit means the search gave up after the iteration cap.
	ErrIterationLimit = errors.New("query: iteration limit reached")
	// ErrCorruptState means the search bookkeeping broke an invariant.
	ErrCorruptState = errors.New("query: corrupt search state")
)

// IsNotFound reports whether err is an exhaustion result rather than a bad
// request or a bug.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoPath) || errors.Is(err, ErrIterationLimit)
}
