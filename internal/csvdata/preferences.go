// Package csvdata loads the simulation's static per-run inputs: user
// charging/discharging preferences and the grid load table, both read
// once at Controller startup from CSV files (spec §7, §9 supplemented
// features), grounded on the original's
// _load_user_preferences_from_file/_is_grid_under_load.
package csvdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
)

// LoadUserPreferences reads a CSV with header
// UserID,MinimumSOC,MaxCostForCharging,DischargePriceThreshold[,MaximumSOC]
// into a map keyed by UserID, matching the original row-by-row
// DictReader loop.
func LoadUserPreferences(path string) (map[int]domain.UserPreference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvdata: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvdata: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return map[int]domain.UserPreference{}, nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	prefs := make(map[int]domain.UserPreference, len(records)-1)
	for _, row := range records[1:] {
		userID, err := strconv.Atoi(row[col["UserID"]])
		if err != nil {
			return nil, fmt.Errorf("csvdata: %s: bad UserID %q: %w", path, row[col["UserID"]], err)
		}
		minSOC, err := strconv.ParseFloat(row[col["MinimumSOC"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata: %s: bad MinimumSOC %q: %w", path, row[col["MinimumSOC"]], err)
		}
		maxCost, err := strconv.ParseFloat(row[col["MaxCostForCharging"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata: %s: bad MaxCostForCharging %q: %w", path, row[col["MaxCostForCharging"]], err)
		}
		dischargeThreshold, err := strconv.ParseFloat(row[col["DischargePriceThreshold"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csvdata: %s: bad DischargePriceThreshold %q: %w", path, row[col["DischargePriceThreshold"]], err)
		}

		pref := domain.UserPreference{
			UserID:                  userID,
			MinimumSOC:              minSOC,
			MaxCostForCharging:      maxCost,
			DischargePriceThreshold: dischargeThreshold,
		}
		if idx, ok := col["MaximumSOC"]; ok && idx < len(row) && row[idx] != "" {
			maxSOC, err := strconv.ParseFloat(row[idx], 64)
			if err != nil {
				return nil, fmt.Errorf("csvdata: %s: bad MaximumSOC %q: %w", path, row[idx], err)
			}
			pref.MaximumSOC = maxSOC
		}
		prefs[userID] = pref
	}
	return prefs, nil
}
