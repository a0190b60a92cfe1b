package services

import (
	"context"
	"fmt"
	"time"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"

	"github.com/robfig/cron/v3"
)

// StorageReconciler is the slice of the storage layer the janitor needs.
type StorageReconciler interface {
	// RemoveOrphanedBids deletes bids whose auction row no longer exists.
	RemoveOrphanedBids(ctx context.Context) (int64, error)
	// RemoveDanglingSelections clears selected-bid references whose bid
	// row no longer exists.
	RemoveDanglingSelections(ctx context.Context) (int64, error)
}

// Janitor periodically reconciles storage: the auction delete is a
// two-step operation (auction row, then its bids), so a crash in between
// can leave orphaned bids behind. Only the elected leader sweeps.
type Janitor struct {
	cron       *cron.Cron
	store      StorageReconciler
	leader     domain.LeaderElection
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewJanitor(store StorageReconciler, leader domain.LeaderElection,
	instanceID string, interval time.Duration, log logger.Logger) *Janitor {
	return &Janitor{
		cron:       cron.New(),
		store:      store,
		leader:     leader,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	j.log.Info("Starting janitor", "interval", j.interval)

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		j.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() error {
	j.log.Info("Stopping janitor")
	j.cron.Stop()
	return nil
}

// Sweep runs one reconciliation pass. Exported so operators can trigger it
// outside the schedule.
func (j *Janitor) Sweep(ctx context.Context) {
	if !j.isLeader(ctx) {
		return
	}

	orphans, err := j.store.RemoveOrphanedBids(ctx)
	if err != nil {
		j.log.Error("Failed to remove orphaned bids", "error", err)
	} else if orphans > 0 {
		j.log.Info("Removed orphaned bids", "count", orphans)
	}

	dangling, err := j.store.RemoveDanglingSelections(ctx)
	if err != nil {
		j.log.Error("Failed to clear dangling selections", "error", err)
	} else if dangling > 0 {
		j.log.Info("Cleared dangling selections", "count", dangling)
	}
}

func (j *Janitor) isLeader(ctx context.Context) bool {
	if j.leader == nil {
		return true
	}

	isLeader, err := j.leader.IsLeader(ctx, j.instanceID)
	if err != nil {
		j.log.Error("Failed to check leadership", "error", err)
		return false
	}
	if isLeader {
		return true
	}

	became, err := j.leader.BecomeLeader(ctx, j.instanceID)
	if err != nil {
		j.log.Error("Failed to attempt leadership", "error", err)
		return false
	}
	return became
}
