package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tableizer/api/internal/queue"
)

// Scheduler periodically enqueues the reconcile sweep that re-renders
// exports for images with a cached table.
type Scheduler struct {
	cron     *cron.Cron
	producer *queue.Producer
	spec     string
	log      zerolog.Logger
}

func NewScheduler(producer *queue.Producer, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		producer: producer,
		spec:     spec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.producer == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.enqueueReconcile); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits up to five seconds for a running job.
func (s *Scheduler) Stop() {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.producer.Enqueue(ctx, queue.Task{Type: queue.TaskReconcile}); err != nil {
		s.log.Error().Err(err).Msg("enqueue reconcile failed")
	}
}
