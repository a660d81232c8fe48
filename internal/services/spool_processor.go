// Package services hosts background workers that run alongside the HTTP
// server.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linelist/backend/internal/infrastructure/spool"
	"github.com/linelist/backend/usecase/cases"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Upserter is the controller capability the processor drains into.
type Upserter interface {
	BatchUpsert(ctx context.Context, docs []map[string]interface{}) (*cases.UpsertResponse, error)
}

// ProcessorConfig controls how frequently the spool is drained. Records older
// than Retention are discarded instead of replayed.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// SpoolProcessor periodically replays spooled case documents into the
// document store once it is reachable again.
type SpoolProcessor struct {
	store    *spool.Store
	monitor  ConnectionHealth
	upserter Upserter
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewSpoolProcessor(
	store *spool.Store,
	monitor ConnectionHealth,
	upserter Upserter,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *SpoolProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := &SpoolProcessor{
		store:    store,
		monitor:  monitor,
		upserter: upserter,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = sp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sp.Drain(ctx); err != nil {
			sp.logger.Error("spool drain failed", zap.Error(err))
		}
	})

	return sp
}

// Start launches the cron scheduler.
func (sp *SpoolProcessor) Start() {
	if sp == nil || sp.cron == nil {
		return
	}
	sp.cron.Start()
	sp.logger.Info("spool processor started")
}

// Stop gracefully stops the scheduler.
func (sp *SpoolProcessor) Stop(ctx context.Context) {
	if sp == nil || sp.cron == nil {
		return
	}
	stopCtx := sp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sp.logger.Info("spool processor stopped")
}

// Drain replays spooled records synchronously. Records whose document the
// store rejects as invalid are dropped with a log line; storage failures
// requeue the record until MaxRetries.
func (sp *SpoolProcessor) Drain(ctx context.Context) error {
	if sp == nil || sp.store == nil {
		return nil
	}
	if sp.monitor != nil && !sp.monitor.IsOnline() {
		sp.logger.Debug("skipping spool drain (offline)")
		return nil
	}

	if sp.cfg.Retention > 0 {
		if err := sp.store.Cleanup(time.Now().Add(-sp.cfg.Retention)); err != nil {
			sp.logger.Warn("spool retention cleanup failed", zap.Error(err))
		}
	}

	records, err := sp.store.GetBatch(sp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := sp.processRecord(ctx, record); err != nil {
			sp.logger.Error("failed to replay spooled record",
				zap.String("record_id", record.ID),
				zap.String("source_id", record.SourceID),
				zap.Error(err))

			record.Retries++
			if record.Retries >= sp.cfg.MaxRetries {
				sp.logger.Warn("dropping spooled record (max retries reached)",
					zap.String("record_id", record.ID))
				_ = sp.store.Remove(record)
				continue
			}

			if err := sp.store.Remove(record); err != nil {
				sp.logger.Warn("failed to remove spooled record", zap.Error(err))
			}
			if err := sp.store.Requeue(record); err != nil {
				sp.logger.Error("failed to requeue spooled record", zap.Error(err))
			}
			continue
		}

		if err := sp.store.Remove(record); err != nil {
			sp.logger.Warn("failed to purge replayed record", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of spooled records.
func (sp *SpoolProcessor) Size() int {
	if sp == nil || sp.store == nil {
		return 0
	}
	size, err := sp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (sp *SpoolProcessor) processRecord(ctx context.Context, record spool.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(record.Doc, &doc); err != nil {
		return err
	}
	response, err := sp.upserter.BatchUpsert(ctx, []map[string]interface{}{doc})
	if err != nil {
		return err
	}
	if message, ok := response.Errors[0]; ok {
		// The document is permanently invalid; retrying cannot help.
		sp.logger.Warn("discarding invalid spooled record",
			zap.String("record_id", record.ID),
			zap.String("source_id", record.SourceID),
			zap.String("reason", message))
	}
	return nil
}
