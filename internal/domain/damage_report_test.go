package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReport() *DamageReport {
	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("broken_stitch")
	return NewDamageReport("DR-001", "WORK-001", "B-8085-33", "OP-001", "Maya Tamang", "SUP-001", dt, []int{5, 12}, UrgencyNormal, "thread snapped mid seam")
}

// TestNewDamageReport tests report creation
func TestNewDamageReport(t *testing.T) {
	report := newTestReport()

	require.NotNil(t, report)
	assert.Equal(t, "DR-001", report.ReportID)
	assert.Equal(t, "B-8085-33", report.BundleNumber)
	assert.Equal(t, ReportStatusReported, report.Status)
	assert.Equal(t, "broken_stitch", report.DamageTypeID)
	assert.Equal(t, CategoryStitching, report.Category)
	assert.Equal(t, SeverityMinor, report.Severity)
	assert.Equal(t, 2, report.PieceCount())
	assert.True(t, report.IsOpen())

	events := report.GetDomainEvents()
	require.Len(t, events, 1)
	event, ok := events[0].(*DamageReportedEvent)
	require.True(t, ok)
	assert.Equal(t, "SUP-001", event.SupervisorID)
	assert.Equal(t, 2, event.PieceCount)
}

// TestDamageReportHappyPath walks the full lifecycle to closed
func TestDamageReportHappyPath(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("broken_stitch")
	report := newTestReport()

	require.NoError(t, report.Acknowledge("SUP-001"))
	assert.Equal(t, ReportStatusAcknowledged, report.Status)
	assert.NotNil(t, report.AcknowledgedAt)

	require.NoError(t, report.MoveToQueue())
	assert.Equal(t, ReportStatusInSupervisorQueue, report.Status)

	require.NoError(t, report.StartRework("SUP-001"))
	assert.Equal(t, ReportStatusReworkInProgress, report.Status)

	details := ReworkDetails{TimeSpentMinutes: 15, Quality: "good", CompletedBy: "SUP-001"}
	require.NoError(t, report.CompleteRework(details, dt, 2.50, 5.0))
	assert.Equal(t, ReportStatusReworkCompleted, report.Status)
	require.NotNil(t, report.PaymentImpact)
	assert.True(t, report.PaymentImpact.OperatorAtFault)
	// 0.10 rate * 2.50 per piece * 2 pieces
	assert.InDelta(t, 0.50, report.PaymentImpact.PenaltyAmount, 1e-9)
	assert.Equal(t, 5.0, report.PaymentImpact.HeldAmount)

	require.NoError(t, report.ReturnToOperator("WORK-001-RW"))
	assert.Equal(t, ReportStatusReturned, report.Status)
	assert.Equal(t, "WORK-001-RW", report.ReworkWorkID)

	require.NoError(t, report.MarkFinalCompletion("repaired and sewn in"))
	assert.Equal(t, ReportStatusClosed, report.Status)
	assert.NotNil(t, report.ClosedAt)
	assert.False(t, report.IsOpen())
}

// TestDamageReportInvalidTransitions tests the transition guards
func TestDamageReportInvalidTransitions(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("broken_stitch")
	details := ReworkDetails{CompletedBy: "SUP-001"}

	tests := []struct {
		name   string
		action func(r *DamageReport) error
	}{
		{
			name:   "Cannot start rework before acknowledge",
			action: func(r *DamageReport) error { return r.StartRework("SUP-001") },
		},
		{
			name:   "Cannot complete rework before starting",
			action: func(r *DamageReport) error { return r.CompleteRework(details, dt, 2.50, 5.0) },
		},
		{
			name:   "Cannot return before rework completes",
			action: func(r *DamageReport) error { return r.ReturnToOperator("WORK-001-RW") },
		},
		{
			name:   "Cannot finalize before return",
			action: func(r *DamageReport) error { return r.MarkFinalCompletion("") },
		},
		{
			name:   "Cannot queue before acknowledge",
			action: func(r *DamageReport) error { return r.MoveToQueue() },
		},
		{
			name: "Cannot acknowledge twice",
			action: func(r *DamageReport) error {
				r.Acknowledge("SUP-001")
				return r.Acknowledge("SUP-001")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newTestReport()
			err := tt.action(report)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

// TestDamageReportDoubleFinalize verifies a closed report cannot be finalized
// again, so held pay is released at most once
func TestDamageReportDoubleFinalize(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("broken_stitch")
	report := newTestReport()

	require.NoError(t, report.Acknowledge("SUP-001"))
	require.NoError(t, report.StartRework("SUP-001"))
	require.NoError(t, report.CompleteRework(ReworkDetails{CompletedBy: "SUP-001"}, dt, 2.50, 5.0))
	require.NoError(t, report.ReturnToOperator("WORK-001-RW"))
	require.NoError(t, report.MarkFinalCompletion("done"))

	err := report.MarkFinalCompletion("done again")
	assert.ErrorIs(t, err, ErrReportClosed)
}

// TestDamageReportStartReworkSkipsQueue verifies rework can begin straight
// from acknowledged without an explicit queue step
func TestDamageReportStartReworkSkipsQueue(t *testing.T) {
	report := newTestReport()
	require.NoError(t, report.Acknowledge("SUP-001"))
	assert.NoError(t, report.StartRework("SUP-001"))
}

// TestDamageReportEscalation tests SLA deadlines and escalation
func TestDamageReportEscalation(t *testing.T) {
	tests := []struct {
		name    string
		urgency Urgency
		sla     time.Duration
	}{
		{name: "Urgent escalates after 1h", urgency: UrgencyUrgent, sla: time.Hour},
		{name: "High escalates after 4h", urgency: UrgencyHigh, sla: 4 * time.Hour},
		{name: "Normal escalates after 24h", urgency: UrgencyNormal, sla: 24 * time.Hour},
		{name: "Low escalates after 72h", urgency: UrgencyLow, sla: 72 * time.Hour},
	}

	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("fabric_hole")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewDamageReport("DR-001", "WORK-001", "B-8085-33", "OP-001", "Maya Tamang", "SUP-001", dt, []int{1}, tt.urgency, "")

			deadline := report.EscalationDeadline()
			assert.Equal(t, report.ReportedAt.Add(tt.sla), deadline)

			assert.False(t, report.IsOverdue(deadline.Add(-time.Minute)))
			assert.True(t, report.IsOverdue(deadline.Add(time.Minute)))
		})
	}
}

// TestDamageReportEscalate tests the escalation transition
func TestDamageReportEscalate(t *testing.T) {
	report := newTestReport()

	require.NoError(t, report.Escalate("supervisor response overdue"))
	assert.Equal(t, ReportStatusEscalated, report.Status)
	require.NotNil(t, report.Escalation)
	assert.Equal(t, "SUP-001", report.Escalation.OriginalSupervisor)
	assert.Equal(t, "supervisor response overdue", report.Escalation.Reason)

	events := report.GetDomainEvents()
	event, ok := events[len(events)-1].(*DamageEscalatedEvent)
	require.True(t, ok)
	assert.Equal(t, "SUP-001", event.OriginalSupervisor)

	// Escalated reports cannot escalate again
	assert.Equal(t, ErrReportNotEscalatable, report.Escalate("again"))
}

// TestDamageReportEscalateAfterRework verifies escalation stops once rework
// is underway
func TestDamageReportEscalateAfterRework(t *testing.T) {
	report := newTestReport()
	require.NoError(t, report.Acknowledge("SUP-001"))
	require.NoError(t, report.StartRework("SUP-001"))

	assert.False(t, report.CanEscalate())
	assert.Equal(t, ErrReportNotEscalatable, report.Escalate("overdue"))
}

// TestDamageReportCancel tests cancellation
func TestDamageReportCancel(t *testing.T) {
	report := newTestReport()

	require.NoError(t, report.Cancel("duplicate report"))
	assert.Equal(t, ReportStatusCancelled, report.Status)
	assert.Equal(t, "duplicate report", report.ResolutionNote)
	assert.False(t, report.IsOpen())

	// Cancelled reports stay cancelled
	assert.ErrorIs(t, report.Cancel("again"), ErrReportClosed)
	assert.ErrorIs(t, report.MarkFinalCompletion(""), ErrReportClosed)
}

// TestDamageReportReject tests rejection of invalid reports
func TestDamageReportReject(t *testing.T) {
	t.Run("Reject from reported", func(t *testing.T) {
		report := newTestReport()
		require.NoError(t, report.Reject("not actual damage"))
		assert.Equal(t, ReportStatusRejected, report.Status)
		assert.False(t, report.IsOpen())
	})

	t.Run("Reject from acknowledged", func(t *testing.T) {
		report := newTestReport()
		require.NoError(t, report.Acknowledge("SUP-001"))
		assert.NoError(t, report.Reject("not actual damage"))
	})

	t.Run("Cannot reject once rework started", func(t *testing.T) {
		report := newTestReport()
		require.NoError(t, report.Acknowledge("SUP-001"))
		require.NoError(t, report.StartRework("SUP-001"))
		assert.ErrorIs(t, report.Reject("too late"), ErrInvalidTransition)
	})
}

// TestDamageReportNoFaultPenalty verifies machine damage carries no penalty
func TestDamageReportNoFaultPenalty(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	dt, _ := taxonomy.Lookup("oil_stain")
	report := NewDamageReport("DR-002", "WORK-001", "B-8085-33", "OP-001", "Maya Tamang", "SUP-001", dt, []int{3, 4, 9}, UrgencyHigh, "")

	require.NoError(t, report.Acknowledge("SUP-001"))
	require.NoError(t, report.StartRework("SUP-001"))
	require.NoError(t, report.CompleteRework(ReworkDetails{CompletedBy: "SUP-001"}, dt, 2.50, 7.5))

	require.NotNil(t, report.PaymentImpact)
	assert.False(t, report.PaymentImpact.OperatorAtFault)
	assert.Zero(t, report.PaymentImpact.PenaltyAmount)
}
