package replan

import "github.com/pkg/errors"

var (
	// ErrNodeNotFound means an id passed to the planner is not in its graph.
	ErrNodeNotFound = errors.New("replan: node not in graph")
	// ErrNoPath means the start has no finite cost to the goal.
	ErrNoPath = errors.New("replan: no path")
	// ErrIterationLimit means ComputeShortestPath hit the step cap.
	ErrIterationLimit = errors.New("replan: step limit reached")
	// ErrCorruptState means the settled costs do not describe a path.
	ErrCorruptState = errors.New("replan: corrupt planner state")
	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("replan: planner not initialized")
)
