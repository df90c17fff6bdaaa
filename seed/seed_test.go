package seed

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"cnis.health/nse/diet"
	"cnis.health/nse/records"
	"cnis.health/nse/screening"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func assessor() records.Assessor {
	return records.Assessor{
		Screener: &screening.Screener{},
		Resolver: diet.NewResolver(nil),
	}
}

func TestGenerate(t *testing.T) {
	samples := Generate(300, rand.New(rand.NewSource(7)), now)
	require.Len(t, samples, 300)

	known := map[string]map[string]bool{}
	for _, st := range states {
		known[st.name] = map[string]bool{}
		for _, d := range st.districts {
			known[st.name][d] = true
		}
	}

	ids := map[string]bool{}
	for _, s := range samples {
		sub := s.Submission
		require.False(t, ids[sub.RequestID], sub.RequestID)
		ids[sub.RequestID] = true

		require.True(t, known[sub.Location.Region][sub.Location.District], "%+v", sub.Location)
		require.False(t, s.TakenAt.After(now))
		require.True(t, s.TakenAt.After(now.Add(-daysBack*24*time.Hour)))
		for _, c := range sub.Input.MedicalHistory {
			if c == "fever" {
				require.Equal(t, OutbreakDistrict, sub.Location.District)
			}
		}
		in := screening.ParseInput(sub.Input)
		require.NotNil(t, in.MuacCm)
		require.NotNil(t, in.AgeMonths)
	}

	again := Generate(300, rand.New(rand.NewSource(7)), now)
	require.Empty(t, cmp.Diff(samples, again))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemoryStore()
	samples := Generate(200, rand.New(rand.NewSource(3)), now)

	stored, skipped, err := Load(ctx, store, assessor(), samples)
	require.NoError(t, err)
	require.Equal(t, 200, stored)
	require.Equal(t, 0, skipped)

	list, err := store.List(ctx, "seed", 0)
	require.NoError(t, err)
	require.Len(t, list, 200)

	statuses := map[screening.Status]int{}
	for _, r := range list {
		statuses[r.Result.OverallStatus]++
		require.NotEmpty(t, r.Location.District)
		require.Equal(t, r.CreatedAt, r.Result.Timestamp)
		require.Equal(t, diet.DetectSeason(r.CreatedAt.Month()), r.Season)
	}
	require.Positive(t, statuses[screening.StatusSAM]+statuses[screening.StatusMAM])
	require.Positive(t, statuses[screening.StatusNormal]+statuses[screening.StatusAtRisk])

	stored, skipped, err = Load(ctx, store, assessor(), Generate(200, rand.New(rand.NewSource(4)), now))
	require.NoError(t, err)
	require.Equal(t, 0, stored)
	require.Equal(t, 200, skipped)
}
