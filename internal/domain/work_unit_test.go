package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewWorkUnit tests work unit creation
func TestNewWorkUnit(t *testing.T) {
	unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)

	require.NotNil(t, unit)
	assert.Equal(t, "WORK-001", unit.WorkID)
	assert.Equal(t, "B-8085-33", unit.BundleNumber)
	assert.Equal(t, "8085", unit.Article)
	assert.Equal(t, "sleeve_attach", unit.Operation)
	assert.Equal(t, 30, unit.Pieces)
	assert.Equal(t, 2.50, unit.RatePerPiece)
	assert.Equal(t, WorkUnitStatusAvailable, unit.Status)
	assert.Equal(t, PaymentStatusPending, unit.PaymentStatus)
	assert.False(t, unit.Assigned)
	assert.Equal(t, 100, unit.Priority)
	assert.Equal(t, int64(1), unit.Version)
	assert.NotZero(t, unit.CreatedAt)
}

// TestWorkUnitClaim tests claiming a work unit
func TestWorkUnitClaim(t *testing.T) {
	tests := []struct {
		name        string
		setupUnit   func() *WorkUnit
		operatorID  string
		expectError error
	}{
		{
			name: "Claim available unit",
			setupUnit: func() *WorkUnit {
				return NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
			},
			operatorID:  "OP-001",
			expectError: nil,
		},
		{
			name: "Cannot claim already assigned unit",
			setupUnit: func() *WorkUnit {
				unit := NewWorkUnit("WORK-002", "B-8085-34", "8085", "sleeve_attach", 30, 2.50)
				unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
				return unit
			},
			operatorID:  "OP-002",
			expectError: ErrWorkNotAvailable,
		},
		{
			name: "Cannot claim cancelled unit",
			setupUnit: func() *WorkUnit {
				unit := NewWorkUnit("WORK-003", "B-8085-35", "8085", "sleeve_attach", 30, 2.50)
				unit.Cancel()
				return unit
			},
			operatorID:  "OP-001",
			expectError: ErrWorkNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := tt.setupUnit()
			err := unit.Claim(tt.operatorID, "Maya Tamang", "overlock-3", true)

			if tt.expectError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectError, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, WorkUnitStatusAssigned, unit.Status)
				assert.True(t, unit.Assigned)
				assert.Equal(t, tt.operatorID, unit.AssignedTo)
				assert.Equal(t, "Maya Tamang", unit.OperatorName)
				assert.True(t, unit.SelfAssigned)
				assert.NotNil(t, unit.AssignedAt)

				events := unit.GetDomainEvents()
				require.GreaterOrEqual(t, len(events), 1)
				event, ok := events[len(events)-1].(*WorkClaimedEvent)
				require.True(t, ok)
				assert.Equal(t, unit.WorkID, event.WorkID)
				assert.Equal(t, tt.operatorID, event.OperatorID)
			}
		})
	}
}

// TestWorkUnitRelease tests releasing a work unit back to the pool
func TestWorkUnitRelease(t *testing.T) {
	tests := []struct {
		name        string
		setupUnit   func() *WorkUnit
		operatorID  string
		expectError error
	}{
		{
			name: "Release own assigned unit",
			setupUnit: func() *WorkUnit {
				unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
				unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
				return unit
			},
			operatorID:  "OP-001",
			expectError: nil,
		},
		{
			name: "Cannot release unassigned unit",
			setupUnit: func() *WorkUnit {
				return NewWorkUnit("WORK-002", "B-8085-34", "8085", "sleeve_attach", 30, 2.50)
			},
			operatorID:  "OP-001",
			expectError: ErrWorkNotAssigned,
		},
		{
			name: "Cannot release another operator's unit",
			setupUnit: func() *WorkUnit {
				unit := NewWorkUnit("WORK-003", "B-8085-35", "8085", "sleeve_attach", 30, 2.50)
				unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
				return unit
			},
			operatorID:  "OP-002",
			expectError: ErrWorkAssignedToOther,
		},
		{
			name: "Cannot release completed unit",
			setupUnit: func() *WorkUnit {
				unit := NewWorkUnit("WORK-004", "B-8085-36", "8085", "sleeve_attach", 30, 2.50)
				unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
				unit.StartWork("OP-001")
				unit.Complete("OP-001", 30)
				return unit
			},
			operatorID:  "OP-001",
			expectError: ErrWorkAlreadyCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := tt.setupUnit()
			err := unit.Release(tt.operatorID)

			if tt.expectError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectError, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, WorkUnitStatusAvailable, unit.Status)
				assert.False(t, unit.Assigned)
				assert.Empty(t, unit.AssignedTo)
				assert.Nil(t, unit.AssignedAt)

				events := unit.GetDomainEvents()
				event, ok := events[len(events)-1].(*WorkReleasedEvent)
				require.True(t, ok)
				assert.Equal(t, tt.operatorID, event.OperatorID)
			}
		})
	}
}

// TestWorkUnitComplete tests completion and piece-rate earnings
func TestWorkUnitComplete(t *testing.T) {
	tests := []struct {
		name            string
		completedPieces int
		expectError     error
		expectEarned    float64
	}{
		{
			name:            "Complete full bundle",
			completedPieces: 30,
			expectError:     nil,
			expectEarned:    75.0,
		},
		{
			name:            "Complete partial bundle",
			completedPieces: 20,
			expectError:     nil,
			expectEarned:    50.0,
		},
		{
			name:            "Zero pieces rejected",
			completedPieces: 0,
			expectError:     ErrInvalidPieceCount,
		},
		{
			name:            "More than bundle size rejected",
			completedPieces: 31,
			expectError:     ErrInvalidPieceCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
			require.NoError(t, unit.Claim("OP-001", "Maya Tamang", "overlock-3", true))
			require.NoError(t, unit.StartWork("OP-001"))

			err := unit.Complete("OP-001", tt.completedPieces)

			if tt.expectError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectError, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, WorkUnitStatusCompleted, unit.Status)
				assert.Equal(t, tt.expectEarned, unit.EarnedAmount)
				assert.True(t, unit.CanWithdraw)
				assert.NotNil(t, unit.CompletedAt)
			}
		})
	}
}

// TestWorkUnitCompleteGuards tests completion preconditions
func TestWorkUnitCompleteGuards(t *testing.T) {
	unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)

	// Not assigned yet
	assert.Equal(t, ErrWorkNotAssigned, unit.Complete("OP-001", 30))

	// Assigned but not started
	require.NoError(t, unit.Claim("OP-001", "Maya Tamang", "overlock-3", true))
	assert.Equal(t, ErrWorkNotInProgress, unit.Complete("OP-001", 30))

	// Wrong operator
	require.NoError(t, unit.StartWork("OP-001"))
	assert.Equal(t, ErrWorkAssignedToOther, unit.Complete("OP-002", 30))
}

// TestWorkUnitPaymentHold tests the damage payment hold on a work unit
func TestWorkUnitPaymentHold(t *testing.T) {
	unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
	require.NoError(t, unit.Claim("OP-001", "Maya Tamang", "overlock-3", true))
	require.NoError(t, unit.StartWork("OP-001"))
	require.NoError(t, unit.Complete("OP-001", 30))

	// Hold for 3 damaged pieces
	amount, err := unit.HoldPayment("DR-001", 3)
	require.NoError(t, err)
	assert.Equal(t, 7.5, amount)
	assert.Equal(t, PaymentStatusHeldForDamage, unit.PaymentStatus)
	assert.Equal(t, "DR-001", unit.HeldForReport)
	assert.False(t, unit.CanWithdraw)

	// Second hold rejected
	_, err = unit.HoldPayment("DR-002", 2)
	assert.Equal(t, ErrPaymentAlreadyHeld, err)

	// Release with wrong report rejected
	_, err = unit.ReleasePayment("DR-999")
	assert.Error(t, err)

	// Release with right report restores withdrawal
	released, err := unit.ReleasePayment("DR-001")
	require.NoError(t, err)
	assert.Equal(t, 7.5, released)
	assert.Equal(t, PaymentStatusReleased, unit.PaymentStatus)
	assert.Zero(t, unit.HeldAmount)
	assert.True(t, unit.CanWithdraw)

	// Second release rejected
	_, err = unit.ReleasePayment("DR-001")
	assert.Equal(t, ErrPaymentNotHeld, err)
}

// TestWorkUnitHoldPieceValidation tests damaged piece bounds on holds
func TestWorkUnitHoldPieceValidation(t *testing.T) {
	unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)

	_, err := unit.HoldPayment("DR-001", 0)
	assert.Equal(t, ErrInvalidPieceCount, err)

	_, err = unit.HoldPayment("DR-001", 31)
	assert.Equal(t, ErrInvalidPieceCount, err)
}

// TestNewReworkUnit tests rework bundle creation
func TestNewReworkUnit(t *testing.T) {
	original := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
	require.NoError(t, original.Claim("OP-001", "Maya Tamang", "overlock-3", true))

	rework := NewReworkUnit("WORK-001-RW", original, "DR-001", 3)

	require.NotNil(t, rework)
	assert.Equal(t, "B-8085-33", rework.BundleNumber)
	assert.Equal(t, WorkUnitStatusAssigned, rework.Status)
	assert.True(t, rework.Assigned)
	assert.Equal(t, "OP-001", rework.AssignedTo)
	assert.Equal(t, 3, rework.Pieces)
	assert.Equal(t, 1, rework.Priority)
	assert.True(t, rework.IsRework)
	assert.Equal(t, "DR-001", rework.OriginalDamageReportID)

	events := rework.GetDomainEvents()
	require.Len(t, events, 1)
	event, ok := events[0].(*ReworkUnitCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "DR-001", event.ReportID)
}

// TestWorkUnitDomainEvents tests event accumulation and clearing
func TestWorkUnitDomainEvents(t *testing.T) {
	unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)

	unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
	unit.StartWork("OP-001")
	unit.Complete("OP-001", 30)

	events := unit.GetDomainEvents()
	assert.Len(t, events, 3)

	unit.ClearDomainEvents()
	assert.Len(t, unit.GetDomainEvents(), 0)
}

// BenchmarkWorkUnitClaim benchmarks the claim transition
func BenchmarkWorkUnitClaim(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		unit := NewWorkUnit("WORK-001", "B-8085-33", "8085", "sleeve_attach", 30, 2.50)
		unit.Claim("OP-001", "Maya Tamang", "overlock-3", true)
	}
}
