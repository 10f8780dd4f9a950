package clinical

import (
	"errors"
	"fmt"
)

// Condition is the clinical state of a single tooth.
type Condition string

const (
	ConditionNormal       Condition = "normal"
	ConditionFilled       Condition = "filled"
	ConditionCrowned      Condition = "crowned"
	ConditionMissing      Condition = "missing"
	ConditionNeedsScaling Condition = "needs_scaling"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNormal, ConditionFilled, ConditionCrowned, ConditionMissing, ConditionNeedsScaling:
		return true
	}
	return false
}

// Odontogram maps an FDI tooth code to its condition. A tooth absent from the
// map is implicitly normal.
type Odontogram map[string]Condition

var (
	ErrInvalidToothCode = errors.New("tooth code is not a valid FDI code")
	ErrInvalidCondition = errors.New("unknown tooth condition")
)

// toothCodes is the FDI two-digit numbering: four quadrants, eight positions.
var toothCodes = buildToothCodes()

func buildToothCodes() []string {
	codes := make([]string, 0, 32)
	for quadrant := 1; quadrant <= 4; quadrant++ {
		for position := 1; position <= 8; position++ {
			codes = append(codes, fmt.Sprintf("%d%d", quadrant, position))
		}
	}
	return codes
}

// ToothCodes returns all 32 valid FDI codes.
func ToothCodes() []string {
	out := make([]string, len(toothCodes))
	copy(out, toothCodes)
	return out
}

// ValidToothCode reports whether code is one of the 32 FDI codes.
func ValidToothCode(code string) bool {
	for _, c := range toothCodes {
		if c == code {
			return true
		}
	}
	return false
}

// DefaultOdontogram is the chart of a patient with no recorded visits: every
// tooth normal.
func DefaultOdontogram() Odontogram {
	m := make(Odontogram, len(toothCodes))
	for _, code := range toothCodes {
		m[code] = ConditionNormal
	}
	return m
}

// Validate checks every entry of the map against the tooth and condition
// vocabularies.
func (o Odontogram) Validate() error {
	for code, cond := range o {
		if !ValidToothCode(code) {
			return fmt.Errorf("%w: %q", ErrInvalidToothCode, code)
		}
		if !cond.Valid() {
			return fmt.Errorf("%w: %q for tooth %s", ErrInvalidCondition, cond, code)
		}
	}
	return nil
}

// Overlay applies delta on top of base and returns the combined chart. Teeth
// omitted from the delta keep their condition from base; neither input is
// mutated.
func Overlay(base, delta Odontogram) Odontogram {
	out := make(Odontogram, len(base)+len(delta))
	for code, cond := range base {
		out[code] = cond
	}
	for code, cond := range delta {
		out[code] = cond
	}
	return out
}
