package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory"
)

//go:generate mockgen -source=audit.go -package=audit -destination=audit_mock.go

const defaultWorkers = 8

// ErrInventorySource is returned when the inventory could not be fetched.
// No partial audit is made in this case.
var ErrInventorySource = errors.New("inventory source failed")

// Resolver checks whether a hostname has an address record.
type Resolver interface {
	// Resolve returns nil if hostname resolves to at least one address.
	Resolve(ctx context.Context, hostname string) error
}

// Prober checks whether a hostname accepts connections on the TLS port.
type Prober interface {
	// Probe returns nil if a connection was established in time.
	Probe(ctx context.Context, hostname string) error
}

// Inspector reads the certificate a hostname presents.
type Inspector interface {
	// Inspect returns facts about the presented leaf certificate.
	Inspect(ctx context.Context, hostname string) (entities.CertificateFacts, error)
}

// Option configures Service.
type Option func(*Service)

// WithClock sets the clock expiration is evaluated against.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithWorkers sets how many hostnames are audited in parallel.
// One worker gives strictly sequential processing.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSkipWildcards makes wildcard common names count as excluded.
func WithSkipWildcards(skip bool) Option {
	return func(s *Service) {
		s.skipWildcards = skip
	}
}

// Service is designed to audit inventory hostnames.
type Service struct {
	resolver  Resolver
	prober    Prober
	inspector Inspector
	logger    *zap.Logger
	clock     clockwork.Clock
	progress  Progress

	workers       int
	skipWildcards bool
}

// New returns new Service ready to use.
func New(resolver Resolver, prober Prober, inspector Inspector, logger *zap.Logger, opts ...Option) Service {
	s := Service{
		resolver:  resolver,
		prober:    prober,
		inspector: inspector,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		progress:  noProgress{},
		workers:   defaultWorkers,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Audit fetches the inventory from source and audits it.
func (s Service) Audit(ctx context.Context, source inventory.Source, policy entities.Policy) (entities.Report, error) {
	entries, err := source.Fetch(ctx)
	if err != nil {
		return entities.Report{}, fmt.Errorf("%w: %w", ErrInventorySource, err)
	}
	s.logger.Info("fetched inventory", zap.Int("entries", len(entries)))

	return s.Run(ctx, entries, policy)
}

// stage tells where a hostname left the pipeline.
type stage int

const (
	stageSkipped stage = iota
	stageUnresolvable
	stageUnreachable
	stageInspectionFailed
	stageClassified
)

type result struct {
	hostname string
	outcome  entities.Outcome
	stage    stage
}

// Run audits entries against policy. Per-host failures end up in the
// report buckets; the only error returned is cancellation of ctx.
func (s Service) Run(ctx context.Context, entries []entities.InventoryEntry, policy entities.Policy) (entities.Report, error) {
	results := make([]result, len(entries))
	s.progress.Start(len(entries))

	var gr errgroup.Group
	gr.SetLimit(s.workers)
	for i, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		gr.Go(func() error {
			defer s.progress.Done()
			results[i] = s.check(ctx, entry.CommonName, policy)
			return nil
		})
	}
	gr.Wait() //nolint:errcheck

	if err := ctx.Err(); err != nil {
		return entities.Report{}, fmt.Errorf("audit interrupted: %w", err)
	}

	return s.collect(results), nil
}

// check runs the per-hostname pipeline, stopping at the first failed gate.
func (s Service) check(ctx context.Context, name string, policy entities.Policy) result {
	res := result{hostname: name}
	logger := s.logger.With(zap.String("hostname", name))

	verdict := FilterHostname(name, policy)
	if verdict == Proceed && s.skipWildcards && isWildcard(name) {
		verdict = Excluded
	}
	if verdict != Proceed {
		logger.Debug("hostname skipped", zap.Stringer("verdict", verdict))
		return res
	}

	if err := s.resolver.Resolve(ctx, name); err != nil {
		logger.Warn("hostname does not resolve", zap.Error(err))
		res.stage = stageUnresolvable
		return res
	}

	if err := s.prober.Probe(ctx, name); err != nil {
		logger.Warn("hostname did not accept a connection", zap.Error(err))
		res.stage = stageUnreachable
		return res
	}

	facts, err := s.inspector.Inspect(ctx, name)
	if err != nil {
		logger.Warn("failed to inspect certificate", zap.Error(err))
		res.stage = stageInspectionFailed
		return res
	}

	res.stage = stageClassified
	res.outcome = entities.Outcome{
		CertificateFacts: facts,
		Tags:             Evaluate(facts, policy, s.clock.Now()),
	}
	logger.Debug("certificate classified",
		zap.String("issuer", facts.IssuerOrg),
		zap.Time("not_before", facts.NotBefore),
		zap.Time("not_after", facts.NotAfter),
		zap.Any("tags", res.outcome.Tags),
	)

	return res
}

// collect merges per-entry results in inventory order and finalizes buckets.
func (s Service) collect(results []result) entities.Report {
	var (
		report             = entities.Report{Outcomes: make([]entities.Outcome, 0, len(results))}
		unresolvable       = make(entities.HostSet)
		unreachable        = make(entities.HostSet)
		inspectionFailures = make(entities.HostSet)
	)
	for _, res := range results {
		switch res.stage {
		case stageUnresolvable:
			unresolvable.Add(res.hostname)
		case stageUnreachable:
			unreachable.Add(res.hostname)
		case stageInspectionFailed:
			inspectionFailures.Add(res.hostname)
		case stageClassified:
			report.Outcomes = append(report.Outcomes, res.outcome)
		case stageSkipped:
		}
	}

	report.Unresolvable = unresolvable.Sorted()
	report.Unreachable = unreachable.Sorted()
	report.InspectionFailures = inspectionFailures.Sorted()

	s.logger.Info("audit finished",
		zap.Int("outcomes", len(report.Outcomes)),
		zap.Int("unresolvable", len(report.Unresolvable)),
		zap.Int("unreachable", len(report.Unreachable)),
		zap.Int("inspection_failures", len(report.InspectionFailures)),
	)

	return report
}
