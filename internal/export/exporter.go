// Package export renders a snapshot of the cat's records for sharing or
// backup.
package export

import (
	"sort"
	"time"

	"github.com/miaomiao/miaomiao/internal/activity"
	"github.com/miaomiao/miaomiao/internal/favor"
	"github.com/miaomiao/miaomiao/internal/history"
	"github.com/miaomiao/miaomiao/internal/journal"
)

// ExportData is passed to every Exporter.
type ExportData struct {
	GeneratedAt  time.Time
	Favorability favor.State
	Display      favor.Display
	Activity     activity.Stats
	Ranking      []activity.Ranked
	Messages     []history.Entry
	Cycles       []journal.Entry
}

// Exporter renders ExportData to a string in a specific format.
type Exporter interface {
	Export(data ExportData) (string, error)
}

// registry maps format names to Exporter implementations.
var registry = map[string]Exporter{
	"markdown": &MarkdownExporter{},
	"json":     &JSONExporter{},
}

// Get returns the Exporter registered under name, and whether it was found.
func Get(name string) (Exporter, bool) {
	e, ok := registry[name]
	return e, ok
}

// ValidFormats returns the supported export format names, sorted.
func ValidFormats() []string {
	formats := make([]string, 0, len(registry))
	for k := range registry {
		formats = append(formats, k)
	}
	sort.Strings(formats)
	return formats
}
