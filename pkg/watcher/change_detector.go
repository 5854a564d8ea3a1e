package watcher

import (
	"context"
	"time"
)

// ChangeAnalysis describes what has to be reloaded for a batch of changes
type ChangeAnalysis struct {
	ReloadGraph     bool
	RebuildRegistry bool
	ChangedFiles    []string
}

// AnalyzeChanges maps a change event to reload work. A catalog change
// rebuilds the whole registry; descriptors are never patched in place.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{ChangedFiles: event.Paths}

	switch event.Type {
	case ChangeTypeGraph:
		analysis.ReloadGraph = true
	case ChangeTypeCatalog:
		analysis.RebuildRegistry = true
	}
	return analysis
}

// Run wires a watcher through a debouncer and calls apply for every batch
// until ctx is done.
func Run(ctx context.Context, fw *FileWatcher, quietPeriod, maxWait time.Duration, apply func(context.Context, *ChangeAnalysis)) {
	fw.Start(ctx)
	d := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	d.Start(ctx)

	for event := range d.Output() {
		apply(ctx, AnalyzeChanges(event))
	}
}
