// Package backend builds the semantic comparator selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/23skdu/miniviva/internal/config"
	"github.com/23skdu/miniviva/internal/grading"
	"github.com/23skdu/miniviva/internal/logger"
	"github.com/23skdu/miniviva/internal/similarity/flightclient"
	"github.com/23skdu/miniviva/internal/similarity/hfapi"
	"github.com/23skdu/miniviva/internal/similarity/ort"
)

func noop() error { return nil }

// Open returns the comparator for cfg.Comparator and a function that
// releases it. The comparator is nil for config.ComparatorNone; the close
// function is never nil.
func Open(ctx context.Context, cfg config.Config) (grading.Comparator, func() error, error) {
	switch cfg.Comparator {
	case config.ComparatorNone:
		return nil, noop, nil

	case config.ComparatorHF:
		if cfg.HF.Token == "" {
			logger.Log.Warn("HF_API_TOKEN is not set, requests may be rate limited", "endpoint", cfg.HF.Endpoint)
		}
		return hfapi.New(cfg.HF.Endpoint, cfg.HF.Token), noop, nil

	case config.ComparatorLocal:
		c, err := ort.New(ort.Config{
			SharedLibrary: cfg.Local.SharedLibrary,
			ModelPath:     cfg.Local.ModelPath,
			TokenizerPath: cfg.Local.TokenizerPath,
			MaxSeqLen:     cfg.Local.MaxSeqLen,
			Dim:           cfg.Local.Dim,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("local comparator: %w", err)
		}
		return c, c.Close, nil

	case config.ComparatorFlight:
		c := flightclient.New(cfg.Flight.Addr, cfg.Flight.Model)
		if err := c.Connect(ctx); err != nil {
			return nil, noop, fmt.Errorf("flight comparator: %w", err)
		}
		return c, c.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown comparator %q", cfg.Comparator)
}

// NewEvaluator opens the configured comparator and wraps it in an Evaluator.
func NewEvaluator(ctx context.Context, cfg config.Config) (*grading.Evaluator, func() error, error) {
	c, closeFn, err := Open(ctx, cfg)
	if err != nil {
		return nil, closeFn, err
	}
	e := grading.NewEvaluator(c, grading.WithTimeout(cfg.SemanticTimeout))
	logger.Log.Info("evaluator ready",
		"comparator", e.Semantic().Backend(),
		"timeout", cfg.SemanticTimeout,
	)
	return e, closeFn, nil
}
