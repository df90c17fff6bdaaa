package screening

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FlexNumber is a numeric form field as submitted. JSON numbers and JSON
// strings are both accepted; any other JSON value decodes as empty.
type FlexNumber string

// Number formats v as a FlexNumber.
func Number(v float64) FlexNumber {
	return FlexNumber(strconv.FormatFloat(v, 'f', -1, 64))
}

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = FlexNumber(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			*n = FlexNumber(b)
			return nil
		}
		*n = Number(v)
	default:
		*n = ""
	}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(n))
}

// RawInput is a screening submission before validation.
type RawInput struct {
	Sex            string     `json:"sex"`
	AgeMonths      FlexNumber `json:"ageMonths"`
	HeightCm       FlexNumber `json:"heightCm"`
	WeightKg       FlexNumber `json:"weightKg"`
	MuacCm         FlexNumber `json:"muacCm"`
	MedicalHistory []string   `json:"medicalHistory"`
}

// Input is a validated screening submission. A nil measurement is an absent
// signal, never zero.
type Input struct {
	Sex            Sex
	AgeMonths      *int
	HeightCm       *float64
	WeightKg       *float64
	MuacCm         *float64
	MedicalHistory History
}

// ParseInput validates a raw submission. It never fails: unparseable numbers
// become absent signals and unknown sexes become SexUnknown.
func ParseInput(raw RawInput) Input {
	in := Input{
		Sex:            ParseSex(raw.Sex),
		AgeMonths:      wholePtr(raw.AgeMonths),
		HeightCm:       decimalPtr(raw.HeightCm),
		WeightKg:       decimalPtr(raw.WeightKg),
		MuacCm:         decimalPtr(raw.MuacCm),
		MedicalHistory: make(History, 0, len(raw.MedicalHistory)),
	}
	for _, tag := range raw.MedicalHistory {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		in.MedicalHistory = append(in.MedicalHistory, Condition(tag))
	}
	return in
}

func ParseSex(s string) Sex {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	}
	return SexUnknown
}

var (
	decimalPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	wholePrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseDecimal reads the longest leading decimal of s, ignoring leading
// whitespace, so "12.4cm" yields 12.4. Non-finite results are rejected.
func ParseDecimal(s string) (float64, bool) {
	m := decimalPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseWhole reads the leading integer of s; "24.9" yields 24.
func ParseWhole(s string) (int, bool) {
	m := wholePrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return v, true
}

func decimalPtr(n FlexNumber) *float64 {
	v, ok := ParseDecimal(string(n))
	if !ok {
		return nil
	}
	return &v
}

func wholePtr(n FlexNumber) *int {
	v, ok := ParseWhole(string(n))
	if !ok {
		return nil
	}
	return &v
}
