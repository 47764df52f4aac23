package entity

import "fmt"

// Warning is a reliability concern about a prediction.
// The set is closed; switch statements over it should list every value in AllWarnings.
type Warning uint8

const (
	WarningFewExamples Warning = iota + 1
	WarningLowConfidence
	WarningOldExamples
	WarningScatteredDistribution
)

// AllWarnings lists every warning kind in evaluation order.
var AllWarnings = []Warning{
	WarningFewExamples,
	WarningLowConfidence,
	WarningOldExamples,
	WarningScatteredDistribution,
}

func (w Warning) String() string {
	switch w {
	case WarningFewExamples:
		return "few_examples"
	case WarningLowConfidence:
		return "low_confidence"
	case WarningOldExamples:
		return "old_examples"
	case WarningScatteredDistribution:
		return "scattered_distribution"
	}
	return fmt.Sprintf("Warning(%d)", uint8(w))
}

// MarshalText encodes the warning by name.
func (w Warning) MarshalText() ([]byte, error) {
	for _, k := range AllWarnings {
		if k == w {
			return []byte(w.String()), nil
		}
	}
	return nil, fmt.Errorf("entity: unknown warning %d", uint8(w))
}

// UnmarshalText decodes a warning name.
func (w *Warning) UnmarshalText(b []byte) error {
	v, err := ParseWarning(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// ParseWarning maps a warning name back to its value.
func ParseWarning(s string) (Warning, error) {
	for _, k := range AllWarnings {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("entity: unknown warning %q", s)
}
