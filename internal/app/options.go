package service

import (
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/engagement"
	"github.com/okian/gigmatch/internal/domain/reference"
	"github.com/okian/gigmatch/internal/domain/scoring"
	"github.com/okian/gigmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWeightStore replaces the backend chosen from config.
func WithWeightStore(store repository.WeightStore) Option {
	return func(s *Service) {
		if store != nil {
			s.baseWeights = store
		}
	}
}

// WithEngagementStore replaces the backend chosen from config.
func WithEngagementStore(store engagement.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.baseEngagements = store
		}
	}
}

// WithResolver replaces the reference resolver chosen from config.
func WithResolver(r reference.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.baseResolver = r
		}
	}
}

// WithScorer replaces the default calculator.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithTrackerOptions passes options to the engagement tracker.
func WithTrackerOptions(opts ...engagement.Option) Option {
	return func(s *Service) {
		s.trackerOpts = append(s.trackerOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
