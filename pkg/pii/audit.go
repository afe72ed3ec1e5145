package pii

// AuditRecord describes one applied redaction. Records are append-only: the
// applicator and media pipelines produce them alongside redacted output, the
// caller persists or displays them, and the core never retains them past the
// call. Text redactions carry offsets; media redactions carry the projected
// region instead.
type AuditRecord struct {
	EntityType    string  `json:"entity_type"`
	OriginalValue string  `json:"original_value"`
	Confidence    float64 `json:"confidence"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	Region        *Region `json:"region,omitempty"`
	Source        string  `json:"source"`
	RedactedValue string  `json:"redacted_value,omitempty"`
}

// AuditFromEntity builds the audit record for a text-offset redaction.
func AuditFromEntity(e Entity) AuditRecord {
	return AuditRecord{
		EntityType:    string(e.Type),
		OriginalValue: e.Value,
		Confidence:    e.Confidence,
		Start:         e.Start,
		End:           e.End,
		Source:        e.Source,
		RedactedValue: e.RedactedValue,
	}
}

// AuditFromRegion builds the audit record for a media redaction.
func AuditFromRegion(r Region) AuditRecord {
	region := r
	return AuditRecord{
		EntityType:    r.EntityType,
		OriginalValue: r.Value,
		Confidence:    r.Confidence,
		Region:        &region,
		Source:        r.Source,
	}
}
