package ranking

import "github.com/okian/gigmatch/pkg/logger"

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithDispatcher fans pools of at least threshold candidates out through d.
func WithDispatcher(d Dispatcher, threshold int) Option {
	return func(r *Ranker) {
		if d != nil {
			r.dispatcher = d
			r.threshold = max(threshold, 0)
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}
