// Package seed generates demo screenings with a realistic spread of outcomes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"cnis.health/nse/logger"
	"cnis.health/nse/records"
	"cnis.health/nse/region"
	"cnis.health/nse/screening"
)

// OutbreakDistrict reports fever far more often than the other districts.
const OutbreakDistrict = "Nandurbar"

const (
	daysBack        = 30
	malnutritionPct = 0.3
	outbreakFever   = 0.7
)

type state struct {
	name      string
	districts []string
}

var states = []state{
	{"Maharashtra", []string{OutbreakDistrict, "Gadchiroli", "Melghat", "Palghar"}},
	{"Bihar", []string{"Gaya", "Muzaffarpur", "Sitamarhi"}},
	{"Uttar Pradesh", []string{"Bahraich", "Shravasti", "Balrampur"}},
}

var names = []string{"Aarav", "Vihaan", "Aditya", "Sai", "Reyansh", "Ananya", "Diya", "Saanvi", "Pari", "Myra"}

// Sample is a generated submission and the time it was taken.
type Sample struct {
	Submission records.Submission
	TakenAt    time.Time
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.Intn(len(items))]
}

func measurement(rng *rand.Rand, min, spread float64) screening.FlexNumber {
	return screening.FlexNumber(strconv.FormatFloat(min+rng.Float64()*spread, 'f', 1, 64))
}

// Generate returns n samples taken within the 30 days before now. Request ids
// are derived from the position so a repeated run does not duplicate records.
func Generate(n int, rng *rand.Rand, now time.Time) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		st := states[rng.Intn(len(states))]
		district := pick(rng, st.districts)
		sex := "female"
		if rng.Float64() > 0.5 {
			sex = "male"
		}
		age := rng.Intn(55) + 5

		var history []string
		if district == OutbreakDistrict && rng.Float64() < outbreakFever {
			history = append(history, "fever")
		}
		if rng.Float64() > 0.8 {
			history = append(history, "cough")
		}
		if rng.Float64() > 0.9 {
			history = append(history, "diarrhea")
		}

		input := screening.RawInput{
			Sex:            sex,
			AgeMonths:      screening.FlexNumber(strconv.Itoa(age)),
			HeightCm:       measurement(rng, 60, 20),
			MedicalHistory: history,
		}
		if rng.Float64() < malnutritionPct {
			input.MuacCm = measurement(rng, 10, 1.5)
			input.WeightKg = measurement(rng, 5, 3)
		} else {
			input.MuacCm = measurement(rng, 12.5, 2)
			input.WeightKg = measurement(rng, 8, 4)
		}

		samples = append(samples, Sample{
			Submission: records.Submission{
				RequestID: fmt.Sprintf("seed-%d", i),
				ChildName: pick(rng, names),
				UserID:    "seed",
				Location:  &region.Location{Region: st.name, District: district},
				Input:     input,
			},
			TakenAt: now.Add(-time.Duration(rng.Intn(daysBack)) * 24 * time.Hour),
		})
	}
	return samples
}

// Load assesses every sample as of the time it was taken and stores it.
// Samples already stored are skipped.
func Load(ctx context.Context, store records.Store, base records.Assessor, samples []Sample) (stored, skipped int, err error) {
	log := logger.NewLogger("seed")
	for _, s := range samples {
		takenAt := s.TakenAt
		clock := func() time.Time { return takenAt }
		screener := *base.Screener
		screener.Now = clock
		a := base
		a.Screener = &screener
		a.Now = clock
		r := a.Assess(s.Submission)

		err = store.Put(ctx, r)
		switch {
		case errors.Is(err, records.ErrDuplicate):
			skipped++
			continue
		case err != nil:
			return stored, skipped, err
		}
		stored++
	}
	log.Info().Int("stored", stored).Int("skipped", skipped).Msg("Seeded screenings")
	return stored, skipped, nil
}
