package export

import (
	"encoding/json"
	"time"

	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
)

// JSONExporter renders ExportData as structured JSON.
type JSONExporter struct{}

type jsonOutput struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	Favorability jsonFavorability `json:"favorability"`
	Activity     jsonActivity     `json:"activity"`
	Messages     []history.Entry  `json:"messages"`
	Cycles       []journal.Entry  `json:"cycles"`
}

type jsonFavorability struct {
	favor.Display
	Unlocks         []string            `json:"special_unlocks"`
	LastInteraction time.Time           `json:"last_interaction"`
	History         []favor.Interaction `json:"interaction_history"`
}

type jsonActivity struct {
	TotalSamples int                `json:"total_samples"`
	Averages     map[string]float64 `json:"averages"`
	LastUpdated  time.Time          `json:"last_updated"`
}

func (e *JSONExporter) Export(data ExportData) (string, error) {
	averages := make(map[string]float64, len(data.Ranking))
	for _, r := range data.Ranking {
		averages[r.Category] = r.Percent
	}

	out := jsonOutput{
		GeneratedAt: data.GeneratedAt,
		Favorability: jsonFavorability{
			Display:         data.Display,
			Unlocks:         nonNil(data.Favorability.Unlocks),
			LastInteraction: data.Favorability.LastInteraction,
			History:         nonNil(data.Favorability.History),
		},
		Activity: jsonActivity{
			TotalSamples: data.Activity.TotalSamples,
			Averages:     averages,
			LastUpdated:  data.Activity.LastUpdated,
		},
		Messages: nonNil(data.Messages),
		Cycles:   nonNil(data.Cycles),
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// nonNil renders a nil slice as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
