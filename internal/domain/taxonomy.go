package domain

// DamageCategory groups damage types by production stage
type DamageCategory string

const (
	CategoryFabric    DamageCategory = "fabric"
	CategoryStitching DamageCategory = "stitching"
	CategoryCutting   DamageCategory = "cutting"
	CategoryFinishing DamageCategory = "finishing"
	CategoryMachine   DamageCategory = "machine"
)

// Severity classifies how badly a piece is damaged
type Severity string

const (
	SeverityMinor  Severity = "minor"
	SeverityMajor  Severity = "major"
	SeveritySevere Severity = "severe"
)

// Urgency drives the supervisor-response SLA for a damage report
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
	UrgencyLow    Urgency = "low"
)

// DamageType describes one entry of the damage taxonomy. OperatorFault and
// PenaltyRate feed the payment impact assessment when rework completes; the
// penalty is recorded for analytics and never deducted from held pay.
type DamageType struct {
	ID            string         `bson:"id" json:"id"`
	Name          string         `bson:"name" json:"name"`
	Category      DamageCategory `bson:"category" json:"category"`
	Severity      Severity       `bson:"severity" json:"severity"`
	OperatorFault bool           `bson:"operatorFault" json:"operatorFault"`
	PenaltyRate   float64        `bson:"penaltyRate" json:"penaltyRate"` // fraction of piece rate per damaged piece
}

// Taxonomy is a lookup of damage types by ID
type Taxonomy map[string]DamageType

// DefaultTaxonomy returns the built-in garment damage taxonomy
func DefaultTaxonomy() Taxonomy {
	types := []DamageType{
		{ID: "broken_stitch", Name: "Broken Stitch", Category: CategoryStitching, Severity: SeverityMinor, OperatorFault: true, PenaltyRate: 0.10},
		{ID: "skipped_stitch", Name: "Skipped Stitch", Category: CategoryStitching, Severity: SeverityMinor, OperatorFault: true, PenaltyRate: 0.10},
		{ID: "open_seam", Name: "Open Seam", Category: CategoryStitching, Severity: SeverityMajor, OperatorFault: true, PenaltyRate: 0.25},
		{ID: "wrong_stitch_density", Name: "Wrong Stitch Density", Category: CategoryStitching, Severity: SeverityMinor, OperatorFault: true, PenaltyRate: 0.10},
		{ID: "needle_damage", Name: "Needle Damage", Category: CategoryMachine, Severity: SeverityMajor, OperatorFault: false, PenaltyRate: 0},
		{ID: "oil_stain", Name: "Oil Stain", Category: CategoryMachine, Severity: SeverityMajor, OperatorFault: false, PenaltyRate: 0},
		{ID: "machine_tension", Name: "Machine Tension Fault", Category: CategoryMachine, Severity: SeverityMinor, OperatorFault: false, PenaltyRate: 0},
		{ID: "fabric_hole", Name: "Fabric Hole", Category: CategoryFabric, Severity: SeveritySevere, OperatorFault: false, PenaltyRate: 0},
		{ID: "shading_defect", Name: "Shading Defect", Category: CategoryFabric, Severity: SeverityMajor, OperatorFault: false, PenaltyRate: 0},
		{ID: "slub_yarn", Name: "Slub / Yarn Defect", Category: CategoryFabric, Severity: SeverityMinor, OperatorFault: false, PenaltyRate: 0},
		{ID: "cutting_error", Name: "Cutting Error", Category: CategoryCutting, Severity: SeveritySevere, OperatorFault: false, PenaltyRate: 0},
		{ID: "size_mismatch", Name: "Size Mismatch", Category: CategoryCutting, Severity: SeverityMajor, OperatorFault: false, PenaltyRate: 0},
		{ID: "print_defect", Name: "Print Defect", Category: CategoryFinishing, Severity: SeverityMajor, OperatorFault: false, PenaltyRate: 0},
		{ID: "iron_scorch", Name: "Iron Scorch", Category: CategoryFinishing, Severity: SeveritySevere, OperatorFault: true, PenaltyRate: 0.50},
	}

	taxonomy := make(Taxonomy, len(types))
	for _, t := range types {
		taxonomy[t.ID] = t
	}
	return taxonomy
}

// Lookup returns the damage type for an ID
func (t Taxonomy) Lookup(id string) (DamageType, bool) {
	dt, ok := t[id]
	return dt, ok
}

// IsValidUrgency reports whether the urgency value is known
func IsValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyUrgent, UrgencyHigh, UrgencyNormal, UrgencyLow:
		return true
	}
	return false
}
