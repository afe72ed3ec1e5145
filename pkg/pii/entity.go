package pii

import (
	"fmt"
)

// EntityType identifies the category of sensitive content a detector matched.
type EntityType string

// Entity types produced by the built-in detectors. Custom pattern packs may
// introduce additional types; the pipeline treats the type as an opaque tag.
const (
	TypeEmail        EntityType = "EMAIL"
	TypePhone        EntityType = "PHONE"
	TypeSSN          EntityType = "SSN"
	TypeAadhaar      EntityType = "AADHAAR"
	TypePAN          EntityType = "PAN"
	TypePassport     EntityType = "PASSPORT"
	TypeCreditCard   EntityType = "CREDIT_CARD"
	TypeIPAddress    EntityType = "IP_ADDRESS"
	TypeURL          EntityType = "URL"
	TypeDOB          EntityType = "DOB"
	TypeZipCode      EntityType = "ZIP_CODE"
	TypePersonName   EntityType = "PERSON_NAME"
	TypeAddress      EntityType = "ADDRESS"
	TypeLocation     EntityType = "LOCATION"
	TypeOrganization EntityType = "ORGANIZATION"
)

// Detector source identifiers. Consolidation concatenates differing sources
// with "+" (for example "pattern+ner"), so these are conventions rather than
// a closed set.
const (
	SourcePattern = "pattern"
	SourceNER     = "ner"
	SourceOCR     = "ocr"
)

// Entity is one detected span of sensitive content. Offsets are byte offsets
// into the scanned text, Start inclusive and End exclusive. An Entity is
// immutable once consolidated except for the RedactedValue the applicator
// attaches.
type Entity struct {
	Type          EntityType `json:"entity_type"`
	Value         string     `json:"value"`
	Start         int        `json:"start"`
	End           int        `json:"end"`
	Confidence    float64    `json:"confidence"`
	Source        string     `json:"source"`
	RedactedValue string     `json:"redacted_value,omitempty"`
}

// Length returns the span length in bytes.
func (e Entity) Length() int {
	return e.End - e.Start
}

// Validate checks the span invariant 0 <= Start < End <= textLen and that the
// confidence is within [0, 1].
func (e Entity) Validate(textLen int) error {
	if e.Start < 0 || e.End > textLen {
		return fmt.Errorf("entity span [%d,%d) outside text of length %d", e.Start, e.End, textLen)
	}
	if e.Start >= e.End {
		return fmt.Errorf("entity span [%d,%d) is empty or inverted", e.Start, e.End)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("entity confidence %v outside [0,1]", e.Confidence)
	}
	return nil
}

// FilterValid splits entities into those satisfying the span invariant for a
// text of the given length and those that do not. Malformed entries are
// dropped individually; the batch is never rejected as a whole. Callers are
// expected to log the dropped entries.
func FilterValid(entities []Entity, textLen int) (valid, dropped []Entity) {
	for _, e := range entities {
		if err := e.Validate(textLen); err != nil {
			dropped = append(dropped, e)
			continue
		}
		valid = append(valid, e)
	}
	return valid, dropped
}

// CloneEntities returns a copy of the slice so stages can hand results across
// component boundaries without sharing mutable backing arrays.
func CloneEntities(entities []Entity) []Entity {
	if entities == nil {
		return nil
	}
	out := make([]Entity, len(entities))
	copy(out, entities)
	return out
}
