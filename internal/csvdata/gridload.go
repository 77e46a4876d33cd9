package csvdata

import (
	"encoding/csv"
	"fmt"
	"os"
)

// GridLoadTable maps an hour-of-day string ("HH:00") to whether the grid
// is under load at that hour.
type GridLoadTable map[string]bool

// LoadGridLoadTable reads a CSV with header time,grid_on_load where
// grid_on_load is "1" or "0".
func LoadGridLoadTable(path string) (GridLoadTable, error) {
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
		return GridLoadTable{}, nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	table := make(GridLoadTable, len(records)-1)
	for _, row := range records[1:] {
		table[row[col["time"]]] = row[col["grid_on_load"]] == "1"
	}
	return table, nil
}

// UnderLoad reports whether the grid is under load at hourStr ("HH:00"),
// matching the original's _is_grid_under_load: any read or lookup failure
// defaults to false rather than blocking the discharge decision.
func (t GridLoadTable) UnderLoad(hourStr string) bool {
	if t == nil {
		return false
	}
	return t[hourStr]
}
