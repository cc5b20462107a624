// Package service orchestrates trust assessments and continuous monitoring.
// It gathers signals from the stores, runs the pure engine, persists the
// outcome, and emits audit events. Every entry point returns a structured
// result and never an error: internal failures surface only as the
// maximally restrictive outcome plus a log line.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trustgate/internal/trust/engine"
	"trustgate/internal/trust/metrics"
	"trustgate/internal/trust/models"
	"trustgate/internal/trust/store"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
	pstrings "trustgate/pkg/platform/strings"
)

// Service is the zero trust engine entry point. Construct once at process
// start and inject store dependencies explicitly; no hidden globals.
type Service struct {
	trust     store.TrustStore
	policies  store.PolicyStore
	directory store.Directory
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
	decay     engine.DecayStrategy
	tracer    trace.Tracer
	cache     *assessmentCache
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) { s.auditor = auditor }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDecayStrategy swaps the inactivity decay model. Defaults to the flat
// multiplier carried over from the original engine.
func WithDecayStrategy(decay engine.DecayStrategy) Option {
	return func(s *Service) {
		if decay != nil {
			s.decay = decay
		}
	}
}

func New(trust store.TrustStore, policies store.PolicyStore, directory store.Directory, opts ...Option) (*Service, error) {
	if trust == nil {
		return nil, fmt.Errorf("trust store is required")
	}
	if policies == nil {
		return nil, fmt.Errorf("policy store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory is required")
	}

	svc := &Service{
		trust:     trust,
		policies:  policies,
		directory: directory,
		logger:    slog.Default(),
		clock:     time.Now,
		decay:     engine.FlatDecay,
		tracer:    otel.Tracer("trustgate/trust"),
		cache:     newAssessmentCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AssessTrust runs a full assessment for a (user, device) pair: policy
// evaluation, trust recalculation, segmentation, adaptive control
// generation, and persistence of the new record.
func (s *Service) AssessTrust(ctx context.Context, userID, deviceID string, rctx models.RequestContext) models.TrustAssessment {
	ctx, span := s.tracer.Start(ctx, "trust.assess",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	start := s.clock()
	now := start

	signals, policies, err := s.gatherSignals(ctx, userID, deviceID, rctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "signal gathering failed, failing closed",
			"user_id", userID, "device_id", deviceID, "error", err)
		return s.failClosed(ctx, userID, deviceID, now)
	}

	eval := engine.EvaluatePolicies(policies, signals, s.logger)

	newTrust := engine.ComputeTrustLevel(signals.DeviceTrust, eval.Violations, rctx, s.decay)
	segment := engine.SegmentFor(newTrust)
	controls := engine.GenerateControls(newTrust, eval.Violations)

	riskFactors := append([]string{}, eval.RiskFactors...)
	riskFactors = append(riskFactors, screenUserAgent(rctx.UserAgent)...)
	riskFactors = pstrings.DedupeAndTrim(riskFactors)

	record := models.TrustRecord{
		UserID:               userID,
		DeviceID:             deviceID,
		TrustLevel:           newTrust,
		RiskFactors:          riskFactors,
		MicroSegment:         segment,
		AdaptiveControls:     controls,
		PolicyViolationCount: len(eval.Violations),
		LastVerification:     now,
		UpdatedAt:            now,
	}
	if err := s.trust.Upsert(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "trust record write failed, failing closed",
			"user_id", userID, "device_id", deviceID, "error", err)
		return s.failClosed(ctx, userID, deviceID, now)
	}

	assessment := models.TrustAssessment{
		UserID:           userID,
		DeviceID:         deviceID,
		TrustLevel:       newTrust,
		MicroSegment:     segment,
		AllowedResources: engine.AllowedResources(segment),
		AdaptiveControls: controls,
		Violations:       eval.Violations,
		RiskFactors:      riskFactors,
		Allow:            eval.Allow,
		AssessedAt:       now,
	}
	s.cache.put(userID, deviceID, assessment)

	for _, v := range eval.Violations {
		s.metrics.IncrementViolation(string(v.Severity))
	}
	s.metrics.ObserveAssessment(string(segment), newTrust, s.clock().Sub(start))
	s.emitAssessmentAudit(ctx, assessment)

	return assessment
}

// gatherSignals fetches the prior trust record, the active policy table, and
// the user's role concurrently. A missing record or unknown user is not an
// error; a policy table failure is, and triggers the fail-closed path.
func (s *Service) gatherSignals(ctx context.Context, userID, deviceID string, rctx models.RequestContext, now time.Time) (engine.Signals, []models.Policy, error) {
	var (
		prior    models.TrustRecord
		policies []models.Policy
		role     string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		record, err := s.trust.Get(gctx, userID, deviceID)
		if errors.Is(err, sentinel.ErrNotFound) {
			record = models.NewTrustRecord(userID, deviceID)
			err = nil
		}
		if err != nil {
			return fmt.Errorf("load trust record: %w", err)
		}
		prior = record
		return nil
	})

	g.Go(func() error {
		list, err := s.policies.ListActive(gctx)
		if err != nil {
			return fmt.Errorf("load policy table: %w", err)
		}
		policies = list
		return nil
	})

	g.Go(func() error {
		r, err := s.directory.Role(gctx, userID)
		if errors.Is(err, sentinel.ErrNotFound) {
			// Unknown users evaluate with an empty role; role conditions
			// fail closed naturally.
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve user role: %w", err)
		}
		role = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return engine.Signals{}, nil, err
	}

	return engine.Signals{
		UserRole:    role,
		DeviceTrust: prior.TrustLevel,
		Context:     rctx,
		Now:         now,
	}, policies, nil
}

// failClosed returns the maximally restrictive assessment and best-effort
// persists the quarantined record.
func (s *Service) failClosed(ctx context.Context, userID, deviceID string, now time.Time) models.TrustAssessment {
	eval := engine.FailClosedEvaluation()

	record := models.TrustRecord{
		UserID:           userID,
		DeviceID:         deviceID,
		TrustLevel:       0,
		RiskFactors:      eval.RiskFactors,
		MicroSegment:     models.SegmentQuarantine,
		AdaptiveControls: []models.AdaptiveControl{},
		LastVerification: now,
		UpdatedAt:        now,
	}
	if err := s.trust.Upsert(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "fail-closed record write failed",
			"user_id", userID, "device_id", deviceID, "error", err)
	}

	assessment := models.TrustAssessment{
		UserID:           userID,
		DeviceID:         deviceID,
		TrustLevel:       0,
		MicroSegment:     models.SegmentQuarantine,
		AllowedResources: []string{},
		AdaptiveControls: []models.AdaptiveControl{},
		Violations:       []models.PolicyViolation{},
		RiskFactors:      eval.RiskFactors,
		Allow:            false,
		AssessedAt:       now,
	}

	s.metrics.ObserveAssessment(string(models.SegmentQuarantine), 0, 0)
	s.emitAssessmentAudit(ctx, assessment)
	return assessment
}

// ContinuousMonitoring analyzes a telemetry bundle and nudges the stored
// trust level between full assessments. Sub-threshold adjustments are
// computed but not persisted, avoiding write amplification for noise.
func (s *Service) ContinuousMonitoring(ctx context.Context, userID, deviceID string, data models.BehaviorData) models.MonitoringResult {
	ctx, span := s.tracer.Start(ctx, "trust.monitor",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	adjustment, alerts := engine.AnalyzeBehavior(data)
	for _, alert := range alerts {
		s.metrics.IncrementAlert(alert)
	}

	if math.Abs(adjustment) > engine.MonitorPersistMinDelta {
		if err := s.applyAdjustment(ctx, userID, deviceID, adjustment, alerts, data); err != nil {
			s.logger.ErrorContext(ctx, "monitoring adjustment failed",
				"user_id", userID, "device_id", deviceID, "error", err)
			s.metrics.IncrementAlert(engine.AlertMonitoringError)
			return models.MonitoringResult{
				TrustAdjustment: engine.MonitorErrorAdjustment,
				Alerts:          []string{engine.AlertMonitoringError},
			}
		}
	}

	return models.MonitoringResult{TrustAdjustment: adjustment, Alerts: alerts}
}

func (s *Service) applyAdjustment(ctx context.Context, userID, deviceID string, adjustment float64, alerts []string, data models.BehaviorData) error {
	record, err := s.trust.Get(ctx, userID, deviceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		record = models.NewTrustRecord(userID, deviceID)
		err = nil
	}
	if err != nil {
		return fmt.Errorf("load trust record: %w", err)
	}

	now := s.clock()
	previous := record.TrustLevel
	record.TrustLevel = engine.Clamp01(record.TrustLevel + adjustment)
	record.MicroSegment = engine.SegmentFor(record.TrustLevel)
	record.UpdatedAt = now

	if err := s.trust.Upsert(ctx, record); err != nil {
		return fmt.Errorf("persist adjusted record: %w", err)
	}

	if s.auditor != nil {
		metadata := map[string]any{
			"previous_trust": previous,
			"new_trust":      record.TrustLevel,
			"adjustment":     adjustment,
			"alerts":         alerts,
		}
		if reasons := engine.NetworkReasons(data.NetworkActivity); len(reasons) > 0 {
			metadata["network_reasons"] = reasons
		}
		_ = s.auditor.Emit(ctx, audit.Event{
			Timestamp:  now,
			Actor:      userID,
			Action:     audit.ActionTrustAdjusted,
			TargetType: "device",
			TargetID:   deviceID,
			Reason:     fmt.Sprintf("continuous monitoring adjustment %.2f", adjustment),
			Metadata:   metadata,
		})
	}
	return nil
}

// LastAssessment returns the cached result of the pair's most recent
// assessment, if one happened within this process lifetime.
func (s *Service) LastAssessment(userID, deviceID string) (models.TrustAssessment, bool) {
	return s.cache.get(userID, deviceID)
}

func (s *Service) emitAssessmentAudit(ctx context.Context, a models.TrustAssessment) {
	if s.auditor == nil {
		return
	}
	decision := "allow"
	category := audit.CategoryOperations
	if !a.Allow {
		decision = "deny"
		category = audit.CategorySecurity
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Category:   category,
		Timestamp:  a.AssessedAt,
		Actor:      a.UserID,
		Action:     audit.ActionTrustAssessed,
		TargetType: "device",
		TargetID:   a.DeviceID,
		Decision:   decision,
		Metadata: map[string]any{
			"trust_level":   a.TrustLevel,
			"micro_segment": string(a.MicroSegment),
			"violations":    len(a.Violations),
			"risk_factors":  a.RiskFactors,
		},
	})
}

// screenUserAgent tags assessments originating from automation. The tag
// rides along as a risk factor for downstream policies and dashboards; it
// does not feed the trust formula.
func screenUserAgent(ua string) []string {
	if ua == "" {
		return nil
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return []string{"bot_user_agent"}
	}
	return nil
}
