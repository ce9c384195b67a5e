package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kaptinlin/jsonrepair"
)

// RepairStats tracks what RepairJSON had to do.
type RepairStats struct {
	OriginalBytes int
	RepairedBytes int
	RepairTime    time.Duration
	Strategies    []string
	WasRepaired   bool
}

// RepairJSON returns raw unchanged when it is valid JSON and otherwise hands
// it to jsonrepair, which handles trailing commas, comments, single quotes,
// unquoted keys and truncated documents.
func RepairJSON(raw string) (string, RepairStats, error) {
	start := time.Now()
	stats := RepairStats{OriginalBytes: len(raw)}

	if json.Valid([]byte(raw)) {
		stats.RepairedBytes = len(raw)
		stats.RepairTime = time.Since(start)
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		stats.RepairTime = time.Since(start)
		return raw, stats, fmt.Errorf("JSON repair failed: %w", err)
	}
	stats.Strategies = append(stats.Strategies, "jsonrepair_library")

	stats.RepairedBytes = len(repaired)
	stats.RepairTime = time.Since(start)
	if !json.Valid([]byte(repaired)) {
		return repaired, stats, fmt.Errorf("JSON still invalid after repair")
	}
	return repaired, stats, nil
}
