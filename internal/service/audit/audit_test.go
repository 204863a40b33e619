package audit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/network"
)

type deps struct {
	resolver  *MockResolver
	prober    *MockProber
	inspector *MockInspector
}

func newDeps(t *testing.T) deps {
	t.Helper()

	ctrl := gomock.NewController(t)
	return deps{
		resolver:  NewMockResolver(ctrl),
		prober:    NewMockProber(ctrl),
		inspector: NewMockInspector(ctrl),
	}
}

func (d deps) service(opts ...Option) Service {
	opts = append([]Option{WithClock(clockwork.NewFakeClockAt(date(2026, 10, 18)))}, opts...)
	return New(d.resolver, d.prober, d.inspector, zap.NewNop(), opts...)
}

func entries(names ...string) []entities.InventoryEntry {
	list := make([]entities.InventoryEntry, 0, len(names))
	for _, n := range names {
		list = append(list, entities.InventoryEntry{CommonName: n})
	}
	return list
}

type countingProgress struct {
	total int
	done  int32
}

func (p *countingProgress) Start(total int) { p.total = total }
func (p *countingProgress) Done()           { atomic.AddInt32(&p.done, 1) }

var testPolicy = entities.NewPolicy(date(2015, 1, 1), []string{"ExampleCA"}, []string{"skip.example.com"})

func TestRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("end to end", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		badCA := entities.CertificateFacts{
			CommonName: "bad-ca.example.com",
			IssuerOrg:  "ExampleCA",
			NotBefore:  date(2014, 6, 1),
			NotAfter:   date(2030, 6, 1),
		}
		good := entities.CertificateFacts{
			CommonName: "good.example.com",
			IssuerOrg:  "OtherCA",
			NotBefore:  date(2020, 1, 1),
			NotAfter:   date(2030, 1, 1),
		}
		for _, f := range []entities.CertificateFacts{badCA, good} {
			d.resolver.EXPECT().Resolve(gomock.Any(), f.CommonName).Return(nil)
			d.prober.EXPECT().Probe(gomock.Any(), f.CommonName).Return(nil)
			d.inspector.EXPECT().Inspect(gomock.Any(), f.CommonName).Return(f, nil)
		}

		report, err := d.service().Run(ctx,
			entries("skip.example.com", "bad-ca.example.com", "good.example.com", "*.wild card!"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []entities.Outcome{
			{CertificateFacts: badCA, Tags: entities.Tags(0).Add(entities.TagFlaggedCA)},
			{CertificateFacts: good},
		}, report.Outcomes)
		require.Empty(t, report.Unresolvable)
		require.Empty(t, report.Unreachable)
		require.Empty(t, report.InspectionFailures)
	})
	t.Run("excluded names never reach the network", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		report, err := d.service().Run(ctx, entries("skip.example.com", "skip.example.com"), testPolicy)
		require.NoError(t, err)
		require.Empty(t, report.Outcomes)
		require.Empty(t, report.Unresolvable)
		require.Empty(t, report.Unreachable)
		require.Empty(t, report.InspectionFailures)
	})
	t.Run("invalid names are dropped", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		report, err := d.service().Run(ctx, entries("*.wild card!", "Internal CA", ""), testPolicy)
		require.NoError(t, err)
		require.Empty(t, report.Outcomes)
		require.Empty(t, report.Unresolvable)
		require.Empty(t, report.Unreachable)
	})
	t.Run("unresolvable hostnames are deduplicated", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.resolver.EXPECT().Resolve(gomock.Any(), "gone.example.com").Return(network.ErrUnresolvable).Times(3)
		d.resolver.EXPECT().Resolve(gomock.Any(), "also-gone.example.com").Return(network.ErrUnresolvable)

		report, err := d.service().Run(ctx,
			entries("gone.example.com", "also-gone.example.com", "gone.example.com", "gone.example.com"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"also-gone.example.com", "gone.example.com"}, report.Unresolvable)
		require.Empty(t, report.Unreachable)
		require.Empty(t, report.Outcomes)
	})
	t.Run("probe timeout lands in unreachable only", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.resolver.EXPECT().Resolve(gomock.Any(), "slow.example.com").Return(nil).Times(2)
		d.prober.EXPECT().Probe(gomock.Any(), "slow.example.com").
			Return(fmt.Errorf("%w: %w", network.ErrUnreachable, context.DeadlineExceeded)).Times(2)

		report, err := d.service().Run(ctx, entries("slow.example.com", "slow.example.com"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"slow.example.com"}, report.Unreachable)
		require.Empty(t, report.Unresolvable)
		require.Empty(t, report.InspectionFailures)
		require.Empty(t, report.Outcomes)
	})
	t.Run("inspection failure has its own bucket", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.resolver.EXPECT().Resolve(gomock.Any(), "reset.example.com").Return(nil)
		d.prober.EXPECT().Probe(gomock.Any(), "reset.example.com").Return(nil)
		d.inspector.EXPECT().Inspect(gomock.Any(), "reset.example.com").
			Return(entities.CertificateFacts{}, network.ErrInspection)

		report, err := d.service().Run(ctx, entries("reset.example.com"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"reset.example.com"}, report.InspectionFailures)
		require.Empty(t, report.Unreachable)
		require.Empty(t, report.Unresolvable)
		require.Empty(t, report.Outcomes)
	})
	t.Run("repeated inspection failures are reported once", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.resolver.EXPECT().Resolve(gomock.Any(), "reset.example.com").Return(nil).Times(2)
		d.prober.EXPECT().Probe(gomock.Any(), "reset.example.com").Return(nil).Times(2)
		d.inspector.EXPECT().Inspect(gomock.Any(), "reset.example.com").
			Return(entities.CertificateFacts{}, network.ErrInspection).Times(2)

		report, err := d.service().Run(ctx, entries("reset.example.com", "reset.example.com"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"reset.example.com"}, report.InspectionFailures)
		require.Empty(t, report.Outcomes)
	})
	t.Run("flagged and expired co-occur", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		facts := entities.CertificateFacts{
			CommonName: "old.example.com",
			IssuerOrg:  "ExampleCA",
			NotBefore:  date(2014, 6, 1),
			NotAfter:   date(2016, 6, 1),
		}
		d.resolver.EXPECT().Resolve(gomock.Any(), facts.CommonName).Return(nil)
		d.prober.EXPECT().Probe(gomock.Any(), facts.CommonName).Return(nil)
		d.inspector.EXPECT().Inspect(gomock.Any(), facts.CommonName).Return(facts, nil)

		report, err := d.service().Run(ctx, entries(facts.CommonName), testPolicy)
		require.NoError(t, err)
		require.Len(t, report.Outcomes, 1)
		require.True(t, report.Outcomes[0].Tags.Has(entities.TagFlaggedCA))
		require.True(t, report.Outcomes[0].Tags.Has(entities.TagExpired))
	})
	t.Run("wildcards fall through to unresolvable", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		d.resolver.EXPECT().Resolve(gomock.Any(), "*.example.com").Return(network.ErrUnresolvable)

		report, err := d.service().Run(ctx, entries("*.example.com"), testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"*.example.com"}, report.Unresolvable)
	})
	t.Run("wildcards can be skipped", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)

		report, err := d.service(WithSkipWildcards(true)).Run(ctx, entries("*.example.com"), testPolicy)
		require.NoError(t, err)
		require.Empty(t, report.Unresolvable)
	})
	t.Run("outcomes keep inventory order", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		names := make([]string, 0, 8)
		for i := 0; i < 8; i++ {
			names = append(names, fmt.Sprintf("host%d.example.com", i))
		}
		d.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil).Times(len(names))
		d.prober.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(nil).Times(len(names))
		d.inspector.EXPECT().Inspect(gomock.Any(), gomock.Any()).Times(len(names)).
			DoAndReturn(func(_ context.Context, hostname string) (entities.CertificateFacts, error) {
				var i int
				fmt.Sscanf(hostname, "host%d.example.com", &i) //nolint:errcheck
				time.Sleep(time.Duration(len(names)-i) * 5 * time.Millisecond)
				return entities.CertificateFacts{CommonName: hostname, NotAfter: date(2030, 1, 1)}, nil
			})

		progress := &countingProgress{}
		svc := d.service(WithWorkers(4), WithProgress(progress))

		report, err := svc.Run(ctx, entries(names...), testPolicy)
		require.NoError(t, err)
		require.Len(t, report.Outcomes, len(names))
		for i, o := range report.Outcomes {
			require.Equal(t, names[i], o.CommonName)
		}
		require.Equal(t, len(names), progress.total)
		require.EqualValues(t, len(names), atomic.LoadInt32(&progress.done))
	})
	t.Run("cancelled run returns no report", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := d.service().Run(cctx, entries("a.example.com"), testPolicy)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAudit(t *testing.T) {
	t.Parallel()

	t.Run("inventory failure is fatal", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		source := inventory.NewMockSource(gomock.NewController(t))
		source.EXPECT().Fetch(gomock.Any()).Return(nil, errors.New("connection refused"))

		_, err := d.service().Audit(context.Background(), source, testPolicy)
		require.ErrorIs(t, err, ErrInventorySource)
	})
	t.Run("audits fetched entries", func(t *testing.T) {
		t.Parallel()

		d := newDeps(t)
		source := inventory.NewMockSource(gomock.NewController(t))
		source.EXPECT().Fetch(gomock.Any()).Return(entries("gone.example.com", "skip.example.com"), nil)
		d.resolver.EXPECT().Resolve(gomock.Any(), "gone.example.com").Return(network.ErrUnresolvable)

		report, err := d.service().Audit(context.Background(), source, testPolicy)
		require.NoError(t, err)
		require.Equal(t, []string{"gone.example.com"}, report.Unresolvable)
	})
}
