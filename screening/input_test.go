package screening

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	valid := map[string]float64{
		"12.4":   12.4,
		" 12.4 ": 12.4,
		"12.4cm": 12.4,
		"12.":    12,
		".5":     0.5,
		"-3":     -3,
		"+7.25":  7.25,
		"1e1":    10,
		"11.5.3": 11.5,
		"10 11":  10,
		"0":      0,
	}
	for in, expected := range valid {
		v, ok := ParseDecimal(in)
		require.True(t, ok, in)
		require.Equal(t, expected, v, in)
	}
	for _, in := range []string{"", "abc", "cm12", ".", "-", "Infinity", "NaN", "1e999"} {
		_, ok := ParseDecimal(in)
		require.False(t, ok, in)
	}
}

func TestParseWhole(t *testing.T) {
	v, ok := ParseWhole("24.9")
	require.True(t, ok)
	require.Equal(t, 24, v)

	v, ok = ParseWhole(" 36 months")
	require.True(t, ok)
	require.Equal(t, 36, v)

	_, ok = ParseWhole("twelve")
	require.False(t, ok)
}

func TestFlexNumberJSON(t *testing.T) {
	var raw RawInput
	err := json.Unmarshal([]byte(`{
		"sex": " Female ",
		"ageMonths": 24.7,
		"heightCm": "85",
		"weightKg": null,
		"muacCm": true,
		"medicalHistory": ["Edema", " fever ", ""]
	}`), &raw)
	require.NoError(t, err)
	require.Equal(t, FlexNumber("24.7"), raw.AgeMonths)
	require.Equal(t, FlexNumber("85"), raw.HeightCm)
	require.Equal(t, FlexNumber(""), raw.WeightKg)
	require.Equal(t, FlexNumber(""), raw.MuacCm)

	b, err := json.Marshal(raw)
	require.NoError(t, err)
	require.Contains(t, string(b), `"weightKg":null`)
	require.Contains(t, string(b), `"heightCm":"85"`)
}

func TestParseInput(t *testing.T) {
	in := ParseInput(RawInput{
		Sex:            " Female ",
		AgeMonths:      "24.7",
		HeightCm:       "85",
		WeightKg:       "",
		MuacCm:         "eleven",
		MedicalHistory: []string{"Edema", " fever ", ""},
	})
	require.Equal(t, SexFemale, in.Sex)
	require.NotNil(t, in.AgeMonths)
	require.Equal(t, 24, *in.AgeMonths)
	require.NotNil(t, in.HeightCm)
	require.Equal(t, 85.0, *in.HeightCm)
	require.Nil(t, in.WeightKg)
	require.Nil(t, in.MuacCm)
	require.Equal(t, History{ConditionEdema, ConditionFever}, in.MedicalHistory)

	require.Equal(t, SexUnknown, ParseInput(RawInput{Sex: "other"}).Sex)
}
