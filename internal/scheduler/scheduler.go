// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rental-contracts/internal/config"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/queue"
	"github.com/iliyamo/rental-contracts/internal/service"
)

// ExpiryNote is recorded in the status history of swept contracts.
const ExpiryNote = "Hợp đồng đã hết hạn"

type expiringContracts interface {
	ExpiredIDs(ctx context.Context, today time.Time) ([]string, error)
	Transition(ctx context.Context, id string, actorID uint64, to contract.Status, note string) (contract.Status, error)
}

// contractCache drops cached reads of a contract after it changes.
type contractCache interface {
	InvalidateContract(ctx context.Context, id string) error
}

// Scheduler moves active contracts past their end date to expired.
type Scheduler struct {
	cron      *cron.Cron
	contracts expiringContracts
	events    service.Publisher
	cache     contractCache
	log       *logrus.Logger
	spec      string
	now       func() time.Time
	isRunning bool
}

// NewScheduler returns a scheduler that sweeps on spec (standard cron
// syntax or descriptors such as "@daily").  cache may be nil.
func NewScheduler(contracts expiringContracts, events service.Publisher, cache contractCache, log *logrus.Logger, spec string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		contracts: contracts,
		events:    events,
		cache:     cache,
		log:       log,
		spec:      spec,
		now:       time.Now,
	}
}

// Start registers the sweep and starts the cron loop.  An empty spec
// disables it.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.log.Info("scheduler: expiry sweep disabled")
		return nil
	}
	_, err := s.cron.AddFunc(s.spec, func() {
		n, err := s.SweepExpired(context.Background())
		if err != nil {
			config.LogError(s.log, "scheduler", "SweepExpired", "expiry sweep failed", nil, err)
			return
		}
		s.log.WithField("expired", n).Info("scheduler: expiry sweep done")
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.isRunning = true
	s.log.WithField("spec", s.spec).Info("scheduler: started")
	return nil
}

// Stop stops the cron loop and waits for a running sweep.
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.log.Info("scheduler: stopped")
	}
}

// SweepExpired expires every due contract and returns how many moved.  A
// contract that fails to move is logged and skipped.
func (s *Scheduler) SweepExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()
	ids, err := s.contracts.ExpiredIDs(ctx, now)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, id := range ids {
		from, err := s.contracts.Transition(ctx, id, 0, contract.StatusExpired, ExpiryNote)
		if err != nil {
			config.LogError(s.log, "scheduler", "SweepExpired", "expire contract", id, err)
			continue
		}
		moved++
		if s.cache != nil {
			if err := s.cache.InvalidateContract(ctx, id); err != nil {
				config.LogError(s.log, "scheduler", "SweepExpired", "invalidate cached contract", id, err)
			}
		}
		ev := queue.ContractStatusChangedEvent{
			ContractID: id,
			From:       string(from),
			To:         string(contract.StatusExpired),
			Note:       ExpiryNote,
			ChangedAt:  now.Format(time.RFC3339),
		}
		if err := s.events.PublishContractStatusChanged(ctx, ev); err != nil {
			config.LogError(s.log, "scheduler", "SweepExpired", "publish contract.status_changed", id, err)
		}
	}
	return moved, nil
}
