// Package scheduler runs the nightly knowledge export.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	exportFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) SetExportFunction(f func(ctx context.Context) error) {
	s.exportFunc = f
}

// Start schedules the export job with the given cron spec (UTC).
func (s *Scheduler) Start(spec string) error {
	if s.exportFunc == nil {
		log.Warn().Msg("export function not set, scheduler will not run exports")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		log.Info().Str("spec", spec).Msg("triggered knowledge export")
		if err := s.exportFunc(s.ctx); err != nil {
			log.Error().Err(err).Msg("knowledge export failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Info().Str("spec", spec).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Info().Msg("scheduler stopped")
}
