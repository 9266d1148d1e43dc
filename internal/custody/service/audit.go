package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/custodian/internal/custody/domain"
	"github.com/aussiebroadwan/custodian/internal/custody/store"
	"github.com/aussiebroadwan/custodian/pkg/addrx"
	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/aussiebroadwan/custodian/pkg/idx"
)

// AuditReport summarises one pass over the record store.
type AuditReport struct {
	RunID     idx.ID
	Total     int
	Legacy    int // records still under a passphrase envelope
	Weak      int // v1 envelopes with cheaper KDF parameters than configured
	Malformed int
}

// AuditService periodically walks every record and logs the ones that can
// no longer be trusted: malformed addresses or unreadable envelope headers.
// It never decrypts anything.
type AuditService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Params are the parameters new envelopes are written with.
	Params cryptox.Params

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewAuditService creates an audit worker. A non-positive interval defaults
// to one hour.
func NewAuditService(st store.Store, logger *slog.Logger, interval time.Duration, params cryptox.Params) *AuditService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &AuditService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Params:   params,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs an audit immediately and then every Interval until Stop.
func (s *AuditService) Start() {
	go s.run()
	s.Logger.Info("audit service started", "interval", s.Interval)
}

// Stop shuts the worker down, waiting for an in-progress audit to finish.
func (s *AuditService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("audit service stopped")
}

func (s *AuditService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	_, _ = s.Run(ctx)

	for {
		select {
		case <-ticker.C:
			_, _ = s.Run(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// Run performs a single audit pass.
func (s *AuditService) Run(ctx context.Context) (AuditReport, error) {
	report := AuditReport{RunID: idx.New()}
	log := s.Logger.With("run_id", report.RunID)

	records, err := s.Store.Records().List(ctx)
	if err != nil {
		log.Error("audit failed to list records", "err", err)
		return report, err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++
		s.check(log, rec, &report)
	}

	log.Info("audit completed",
		"total", report.Total,
		"legacy", report.Legacy,
		"weak", report.Weak,
		"malformed", report.Malformed,
	)
	return report, nil
}

func (s *AuditService) check(log *slog.Logger, rec domain.UserRecord, report *AuditReport) {
	log = log.With("user_id", rec.UserID)

	if _, err := addrx.ParseAddress(rec.Address); err != nil {
		report.Malformed++
		log.Warn("record has malformed address", "err", err)
		return
	}

	format, params, err := cryptox.Inspect(rec.EncryptedSecret)
	if err != nil {
		report.Malformed++
		log.Warn("record has malformed envelope", "err", err)
		return
	}

	switch {
	case format == cryptox.FormatLegacy:
		report.Legacy++
		log.Debug("record uses legacy envelope")
	case params.Memory < s.Params.Memory || params.Iterations < s.Params.Iterations:
		report.Weak++
		log.Debug("record uses weaker kdf parameters", "params", params.String())
	}
}
