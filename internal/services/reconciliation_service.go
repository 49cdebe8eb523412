package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ridelink/booking-backend/internal/config"
	"github.com/ridelink/booking-backend/internal/database"
)

// SweepStatus is a snapshot of the reconciliation sweep's state
type SweepStatus struct {
	Running        bool       `json:"running"`
	Interval       string     `json:"interval"`
	GracePeriod    string     `json:"grace_period"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastChecked    int        `json:"last_checked"`
	LastTransition int        `json:"last_transitioned"`
	LastErrors     int        `json:"last_errors"`
	PendingBacklog int        `json:"pending_backlog"`
}

// ReconciliationService periodically converges pending payments against the
// processor's view. Payments younger than the grace period are left alone so
// a client mid-confirmation is not raced.
type ReconciliationService struct {
	paymentRepo *database.PaymentRepository
	payments    *PaymentService
	cfg         config.SweepConfig
	cron        *cron.Cron
	logger      *logrus.Logger

	mu             sync.Mutex
	running        bool
	sweeping       bool
	lastRunAt      *time.Time
	lastChecked    int
	lastTransition int
	lastErrors     int
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	paymentRepo *database.PaymentRepository,
	payments *PaymentService,
	cfg config.SweepConfig,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		paymentRepo: paymentRepo,
		payments:    payments,
		cfg:         cfg,
		cron:        cron.New(),
		logger:      logger,
	}
}

// Start schedules the periodic sweep
func (s *ReconciliationService) Start() error {
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule reconciliation sweep: %w", err)
	}

	s.cron.Start()

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"interval":     s.cfg.Interval.String(),
		"grace_period": s.cfg.GracePeriod.String(),
	}).Info("Reconciliation sweep started")

	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish, so
// shutdown never truncates a reconciliation pass mid-payment.
func (s *ReconciliationService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Reconciliation sweep stopped")
}

// RunNow triggers a sweep outside the schedule. Returns how many payments
// were checked and how many transitioned.
func (s *ReconciliationService) RunNow() (checked, transitioned int, err error) {
	return s.runSweep()
}

// Status reports the sweep's schedule and last-run counters
func (s *ReconciliationService) Status() (*SweepStatus, error) {
	backlog, err := s.paymentRepo.CountPendingOlderThan(time.Now().Add(-s.cfg.GracePeriod))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &SweepStatus{
		Running:        s.running,
		Interval:       s.cfg.Interval.String(),
		GracePeriod:    s.cfg.GracePeriod.String(),
		LastRunAt:      s.lastRunAt,
		LastChecked:    s.lastChecked,
		LastTransition: s.lastTransition,
		LastErrors:     s.lastErrors,
		PendingBacklog: backlog,
	}, nil
}

// sweep is the cron entry point; failures are logged, never propagated
func (s *ReconciliationService) sweep() {
	if _, _, err := s.runSweep(); err != nil {
		s.logger.WithError(err).Error("Reconciliation sweep failed")
	}
}

// runSweep refreshes every pending payment older than the grace period. One
// payment's failure never stops the pass; it is logged and the sweep moves
// on to the next.
func (s *ReconciliationService) runSweep() (int, int, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Debug("Reconciliation sweep already in progress, skipping")
		return 0, 0, nil
	}
	s.sweeping = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	started := time.Now()
	cutoff := started.Add(-s.cfg.GracePeriod)

	pending, err := s.paymentRepo.ListPendingOlderThan(cutoff)
	if err != nil {
		return 0, 0, err
	}

	transitioned := 0
	failures := 0
	for _, payment := range pending {
		refreshed, err := s.payments.RefreshStatus(payment.ID)
		if err != nil {
			failures++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"payment_id": payment.ID,
				"intent_id":  payment.IntentID,
			}).Warn("Failed to reconcile payment")
			continue
		}
		if refreshed.Status != payment.Status {
			transitioned++
		}
	}

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.lastChecked = len(pending)
	s.lastTransition = transitioned
	s.lastErrors = failures
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"checked":      len(pending),
		"transitioned": transitioned,
		"errors":       failures,
		"duration":     time.Since(started).String(),
	}).Info("Reconciliation sweep completed")

	return len(pending), transitioned, nil
}
