package query

import log "github.com/sirupsen/logrus"

const (
	// DefaultMaxIterations caps graph searches.
	DefaultMaxIterations = 10000
	// DefaultGridMaxIterations caps grid searches, which branch 26 ways.
	DefaultGridMaxIterations = 100000
)

// SearchOptions 寻路参数
type SearchOptions struct {
	MaxIterations int
	Logger        log.FieldLogger
}

// DefaultSearchOptions returns the options used by graph searches.
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		MaxIterations: DefaultMaxIterations,
		Logger:        log.StandardLogger(),
	}
}

// Option customises a search.
type Option func(*SearchOptions)

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *SearchOptions) {
		if n > 0 {
			o.MaxIterations = n
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(o *SearchOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

func newOptions(maxIterations int, opts []Option) SearchOptions {
	o := *DefaultSearchOptions()
	o.MaxIterations = maxIterations
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
