package models

// Acquisition tier numbers. TierNone means every tier was attempted and
// missed.
const (
	TierStructured = 1
	TierBrowser    = 2
	TierInference  = 3
	TierNone       = 0
)

// TierFailure records one tier's miss for an item, in attempt order.
type TierFailure struct {
	Tier   int    `json:"tier"`
	Reason string `json:"reason"`
}

// AcquisitionOutcome is the per-item result of the tier chain. Tiers are
// attempted strictly 1→2→3 and stop at the first success; Tier == TierNone
// means all three were attempted and failed.
type AcquisitionOutcome struct {
	ProductID string                 `json:"product_id"`
	Tier      int                    `json:"tier"`
	Record    *ProductRecord         `json:"record,omitempty"`
	Enriched  *EnrichedProductRecord `json:"enriched,omitempty"`
	Failures  []TierFailure          `json:"failures,omitempty"`
}

// Resolved reports whether any tier produced a record for this item.
func (o AcquisitionOutcome) Resolved() bool {
	return o.Tier != TierNone
}

// BestRecord returns the item's record regardless of which tier produced it.
// For enriched outcomes the embedded base record is returned.
func (o AcquisitionOutcome) BestRecord() *ProductRecord {
	if o.Enriched != nil {
		return &o.Enriched.ProductRecord
	}
	return o.Record
}
