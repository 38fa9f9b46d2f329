package services

import (
	"context"
	"errors"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"

	"github.com/robfig/cron/v3"
)

// LedgerAuditor periodically compares every lot price with its bid history.
// Drift can only come from writes that bypassed the ledger. When repair is on
// the price is recomputed under the lot lock.
type LedgerAuditor struct {
	cron       *cron.Cron
	schedule   string
	ledger     domain.SettlementLedger
	locks      domain.LockManager
	leader     domain.LeaderElection
	instanceID string
	repair     bool
	log        logger.Logger
}

func NewLedgerAuditor(
	schedule string,
	ledger domain.SettlementLedger,
	locks domain.LockManager,
	leader domain.LeaderElection,
	instanceID string,
	repair bool,
	log logger.Logger,
) *LedgerAuditor {
	return &LedgerAuditor{
		cron:       cron.New(cron.WithSeconds()),
		schedule:   schedule,
		ledger:     ledger,
		locks:      locks,
		leader:     leader,
		instanceID: instanceID,
		repair:     repair,
		log:        log,
	}
}

func (a *LedgerAuditor) Start(ctx context.Context) error {
	a.log.Info("Starting ledger auditor", "schedule", a.schedule, "repair", a.repair)

	_, err := a.cron.AddFunc(a.schedule, func() {
		if _, err := a.RunOnce(ctx); err != nil {
			a.log.Error("Ledger audit failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	a.cron.Start()
	return nil
}

func (a *LedgerAuditor) Stop() error {
	a.log.Info("Stopping ledger auditor")
	<-a.cron.Stop().Done()
	return nil
}

// RunOnce performs a single audit pass and returns the drifts it found. It
// does nothing on instances that are not the leader.
func (a *LedgerAuditor) RunOnce(ctx context.Context) ([]*domain.PriceDrift, error) {
	if a.leader != nil {
		isLeader, err := a.leader.IsLeader(ctx, a.instanceID)
		if err != nil || !isLeader {
			return nil, err
		}
	}

	drifts, err := a.ledger.FindPriceDrift(ctx)
	if err != nil {
		return nil, err
	}

	for _, drift := range drifts {
		a.log.Warn("Lot price drift detected",
			"lot_id", drift.LotID,
			"stored", drift.Stored,
			"expected", drift.Expected,
			"bid_count", drift.BidCount)

		if a.repair {
			a.repairLot(ctx, drift.LotID)
		}
	}

	return drifts, nil
}

func (a *LedgerAuditor) repairLot(ctx context.Context, lotID string) {
	lease, err := a.locks.Acquire(ctx, lotID)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			a.log.Info("Skipping repair of busy lot", "lot_id", lotID)
			return
		}
		a.log.Error("Failed to lock lot for repair", "lot_id", lotID, "error", err)
		return
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			a.log.Warn("Failed to release lot lock", "lock", lease.Key(), "error", err)
		}
	}()

	lot, err := a.ledger.RecomputePrice(ctx, lotID)
	if err != nil {
		a.log.Error("Failed to repair lot price", "lot_id", lotID, "error", err)
		return
	}

	a.log.Info("Lot price repaired", "lot_id", lotID, "current_bid", lot.Floor())
}
