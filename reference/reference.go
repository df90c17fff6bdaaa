// Package reference loads the read-only tables the screening core runs on.
package reference

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"cnis.health/nse/baseline"
	"cnis.health/nse/diet"
	"cnis.health/nse/logger"
	"cnis.health/nse/screening"
	"gopkg.in/yaml.v3"
)

const (
	WeightForHeightFile = "weight_for_height.yaml"
	DietFile            = "diet.yaml"
	BaselineFile        = "nfhs.yaml"
)

var ErrInvalidTable = errors.New("invalid reference table")

// Tables are loaded once at start-up and shared read-only afterwards.
type Tables struct {
	WeightForHeight screening.BandTable
	Diet            diet.Database
	Baselines       *baseline.Table
}

func Default() Tables {
	return Tables{
		WeightForHeight: screening.DefaultBandTable,
		Diet:            diet.DefaultDatabase(),
		Baselines:       baseline.Default(),
	}
}

func (t Tables) Validate() error {
	if err := t.WeightForHeight.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, WeightForHeightFile, err)
	}
	if err := t.Diet.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, DietFile, err)
	}
	if t.Baselines == nil {
		return fmt.Errorf("%w: %s: missing", ErrInvalidTable, BaselineFile)
	}
	if err := t.Baselines.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, BaselineFile, err)
	}
	return nil
}

func (t Tables) Screener() *screening.Screener {
	return screening.NewScreener(t.WeightForHeight)
}

func (t Tables) Resolver() *diet.Resolver {
	return diet.NewResolver(t.Diet)
}

// Load returns the embedded tables, replacing each one that has a file of the
// same name in dir. An empty dir loads the embedded tables only.
func Load(dir string) (Tables, error) {
	log := logger.NewLogger("reference")
	tables := Default()
	if dir == "" {
		return tables, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Tables{}, fmt.Errorf("reference dir: %w", err)
	}
	if !info.IsDir() {
		return Tables{}, fmt.Errorf("reference dir %s is not a directory", dir)
	}

	buf, err := readOptional(filepath.Join(dir, WeightForHeightFile))
	if err != nil {
		return Tables{}, err
	}
	if buf != nil {
		var bands screening.BandTable
		if err := yaml.Unmarshal(buf, &bands); err != nil {
			return Tables{}, fmt.Errorf("%w: %s: %v", ErrInvalidTable, WeightForHeightFile, err)
		}
		tables.WeightForHeight = bands
		log.Info().Str("file", WeightForHeightFile).Msg("weight-for-height table overridden")
	}

	buf, err = readOptional(filepath.Join(dir, DietFile))
	if err != nil {
		return Tables{}, err
	}
	if buf != nil {
		db, err := diet.LoadDatabase(bytes.NewReader(buf))
		if err != nil {
			return Tables{}, fmt.Errorf("%w: %s: %v", ErrInvalidTable, DietFile, err)
		}
		tables.Diet = db
		log.Info().Str("file", DietFile).Msg("diet database overridden")
	}

	buf, err = readOptional(filepath.Join(dir, BaselineFile))
	if err != nil {
		return Tables{}, err
	}
	if buf != nil {
		table, err := baseline.Load(bytes.NewReader(buf))
		if err != nil {
			return Tables{}, fmt.Errorf("%w: %s: %v", ErrInvalidTable, BaselineFile, err)
		}
		tables.Baselines = table
		log.Info().Str("file", BaselineFile).Msg("baseline table overridden")
	}

	if err := tables.Validate(); err != nil {
		return Tables{}, err
	}
	return tables, nil
}

func readOptional(path string) ([]byte, error) {
	buf, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}
