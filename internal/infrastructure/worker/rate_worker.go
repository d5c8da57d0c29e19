package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateRefresher is the subset of the exchange client the worker drives
type RateRefresher interface {
	Refresh(ctx context.Context) error
}

// RateWorker keeps the exchange-rate cache warm with a periodic
// best-effort refresh. The workflow never depends on it: conversion
// falls back to the unconverted amount when rates are missing.
type RateWorker struct {
	refresher RateRefresher
	interval  time.Duration
	logger    *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRateWorker creates a new rate refresh worker
func NewRateWorker(refresher RateRefresher, interval time.Duration, logger *zap.Logger) *RateWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RateWorker{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Name returns the worker name
func (w *RateWorker) Name() string {
	return "exchange-rate-refresh"
}

// Start launches the refresh loop. An immediate warm-up runs first so
// the first submissions after boot already convert.
func (w *RateWorker) Start(ctx context.Context) error {
	go func() {
		defer close(w.doneCh)

		if err := w.refresher.Refresh(ctx); err != nil {
			w.logger.Warn("Initial rate refresh failed", zap.Error(err))
		}

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.C:
				if err := w.refresher.Refresh(ctx); err != nil {
					w.logger.Warn("Periodic rate refresh failed", zap.Error(err))
				}
			}
		}
	}()

	return nil
}

// Stop terminates the refresh loop and waits for it to exit
func (w *RateWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	return nil
}

// Verify interface compliance
var _ Worker = (*RateWorker)(nil)
