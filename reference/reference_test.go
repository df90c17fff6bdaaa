package reference

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"cnis.health/nse/baseline"
	"cnis.health/nse/diet"
	"cnis.health/nse/screening"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	t.Run("Embedded tables", func(t *testing.T) {
		tables, err := Load("")
		require.NoError(t, err)
		require.Equal(t, screening.DefaultBandTable, tables.WeightForHeight)
		require.Equal(t, diet.DefaultDatabase(), tables.Diet)
		require.Equal(t, baseline.Default(), tables.Baselines)
		require.NoError(t, tables.Validate())
	})
	t.Run("Empty override dir", func(t *testing.T) {
		tables, err := Load(t.TempDir())
		require.NoError(t, err)
		require.Equal(t, Default(), tables)
	})
	t.Run("Missing dir", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
	})
	t.Run("Weight-for-height override", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, WeightForHeightFile, `
male:
  - {height_cm: 80, weight_kg: 10}
female:
  - {height_cm: 80, weight_kg: 9}
`)
		tables, err := Load(dir)
		require.NoError(t, err)
		require.Equal(t, []screening.HeightBand{{HeightCm: 80, WeightKg: 9}}, tables.WeightForHeight.Female)
		require.Equal(t, diet.DefaultDatabase(), tables.Diet)

		res := tables.Screener().Screen(screening.ParseInput(screening.RawInput{
			Sex: "female", AgeMonths: "20", HeightCm: "110", WeightKg: "6.0",
		}))
		require.Equal(t, screening.StatusSAM, res.WfhResult.Status)
		require.Equal(t, 9.0, res.WfhResult.ExpectedWeightKg)
	})
	t.Run("Diet override", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, DietFile, "default:\n  summer:\n    foods: [{name: Khichdi, benefit: Light}]\n")
		tables, err := Load(dir)
		require.NoError(t, err)
		rec := tables.Resolver().Recommend("Goa", diet.SeasonWinter, screening.StatusNormal)
		require.Equal(t, "Khichdi", rec.Foods[0].Name)
	})
	t.Run("Baseline override", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, BaselineFile, `
national: {stunting: 30, wasting: 15, underweight: 25, concern: High, notes: National.}
districts:
  Gaya: {state: Bihar, stunting: 40, wasting: 14, underweight: 36, concern: High, notes: Magadh.}
`)
		tables, err := Load(dir)
		require.NoError(t, err)
		require.Equal(t, 40.0, tables.Baselines.Lookup("Gaya", "Bihar").Stunting)
		require.Equal(t, baseline.LevelNational, tables.Baselines.Lookup("Patna", "Bihar").Level)
		require.Equal(t, diet.DefaultDatabase(), tables.Diet)
	})
	t.Run("Invalid tables", func(t *testing.T) {
		files := map[string]string{
			"Descending bands": "male:\n  - {height_cm: 80, weight_kg: 10}\n  - {height_cm: 70, weight_kg: 8}\nfemale:\n  - {height_cm: 80, weight_kg: 9}\n",
			"Missing column":   "male:\n  - {height_cm: 80, weight_kg: 10}\n",
			"Malformed":        "male: {",
		}
		for name, content := range files {
			t.Run(name, func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, WeightForHeightFile, content)
				_, err := Load(dir)
				require.ErrorIs(t, err, ErrInvalidTable)
			})
		}
		t.Run("Baseline without national row", func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, BaselineFile, "states:\n  Bihar: {stunting: 42.9, wasting: 12.3, underweight: 41, concern: High}\n")
			_, err := Load(dir)
			require.ErrorIs(t, err, ErrInvalidTable)
		})
		t.Run("Diet without default", func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, DietFile, "Goa:\n  summer:\n    foods: [{name: a}]\n")
			_, err := Load(dir)
			require.ErrorIs(t, err, ErrInvalidTable)
		})
	})
}
