package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-insights/internal/pkg/timezone"
)

// Pipeline runs detector, reconciler, calculator, aggregator and tier
// classifier with one organization configuration. It holds no mutable state
// and is safe for concurrent use.
type Pipeline struct {
	resolver   *timezone.Resolver
	reconciler *Reconciler
	policy     ShiftPolicy
	aggregator Aggregator
}

func NewPipeline(resolver *timezone.Resolver, policy ShiftPolicy, aggregator Aggregator) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		reconciler: NewReconciler(resolver),
		policy:     policy,
		aggregator: aggregator,
	}
}

// Resolver returns the organization timezone resolver.
func (p *Pipeline) Resolver() *timezone.Resolver {
	return p.resolver
}

// Sessions reconciles and annotates one user's raw record. Sessions are
// ordered newest first. Entries that could not be used are returned as issues.
func (p *Pipeline) Sessions(rec attendance.RawUserRecord) ([]attendance.Session, []attendance.Issue) {
	entries, issues := Classify(rec)

	reconciled, reconcileIssues := p.reconciler.Reconcile(entries)
	issues = append(issues, reconcileIssues...)

	sessions := make([]attendance.Session, 0, len(reconciled))
	for _, s := range reconciled {
		annotated, err := Annotate(s, p.policy)
		if err != nil {
			issues = append(issues, attendance.Issue{SourceKey: s.SourceKey, Err: err})
			continue
		}
		sessions = append(sessions, annotated)
	}

	SortSessions(sessions, true)
	return sessions, issues
}

// Performance aggregates sessions over the window ending on the organization
// date of now and classifies the resulting attendance rate.
func (p *Pipeline) Performance(sessions []attendance.Session, windowDays int, now time.Time) (attendance.PerformanceMetrics, attendance.Tier, error) {
	metrics, err := p.aggregator.Aggregate(sessions, windowDays, p.resolver.Today(now))
	if err != nil {
		return attendance.PerformanceMetrics{}, "", err
	}
	return metrics, ClassifyTier(metrics.AttendanceRate), nil
}
