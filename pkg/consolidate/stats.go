package consolidate

import "github.com/platinummonkey/veil/pkg/pii"

// Stats summarizes a consolidated entity list for API responses and the CLI.
type Stats struct {
	Total            int            `json:"total"`
	ByType           map[string]int `json:"by_type"`
	BySource         map[string]int `json:"by_source"`
	AvgConfidence    float64        `json:"avg_confidence"`
	HighConfidence   int            `json:"high_confidence"`
	MediumConfidence int            `json:"medium_confidence"`
	LowConfidence    int            `json:"low_confidence"`
}

// Summarize computes per-type and per-source counts, the mean confidence and
// a three-bucket confidence histogram (>=0.8 high, >=0.5 medium, else low).
func Summarize(entities []pii.Entity) Stats {
	stats := Stats{
		Total:    len(entities),
		ByType:   make(map[string]int),
		BySource: make(map[string]int),
	}
	if len(entities) == 0 {
		return stats
	}

	var totalConf float64
	for _, e := range entities {
		stats.ByType[string(e.Type)]++
		stats.BySource[e.Source]++
		totalConf += e.Confidence

		switch {
		case e.Confidence >= 0.8:
			stats.HighConfidence++
		case e.Confidence >= 0.5:
			stats.MediumConfidence++
		default:
			stats.LowConfidence++
		}
	}
	stats.AvgConfidence = totalConf / float64(len(entities))
	return stats
}
