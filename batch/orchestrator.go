package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Samartha120/Vechile-Damage-Detection/models"
)

// Analyzer is the per-image analysis dependency driven by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, imageDataURI string) (*models.UnitAnalysisResult, error)
}

var (
	// ErrBatchInFlight means a run was requested while another is active.
	ErrBatchInFlight = errors.New("an analysis is already running")

	// ErrAllUnitsFailed means not a single image in the batch could be analyzed.
	ErrAllUnitsFailed = errors.New("analysis failed for every image in the batch")
)

// Progress is an immutable snapshot of a batch run, suitable for polling.
type Progress struct {
	Active      bool `json:"active"`
	CurrentUnit int  `json:"current_unit"` // 1-based; 0 when idle
	TotalUnits  int  `json:"total_units"`
	Percent     int  `json:"percent"`
}

// Orchestrator drives the analyzer across an ordered sequence of images,
// strictly one at a time. At most one run (batch or single) is in flight at
// any moment; a running batch cannot be cancelled, only awaited.
type Orchestrator struct {
	analyzer Analyzer
	log      *slog.Logger

	mu       sync.Mutex
	inFlight bool
	progress Progress
}

func NewOrchestrator(analyzer Analyzer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{analyzer: analyzer, log: log}
}

// Progress returns the current snapshot.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

func (o *Orchestrator) begin(total int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return ErrBatchInFlight
	}
	o.inFlight = true
	o.progress = Progress{Active: true, TotalUnits: total}
	return nil
}

func (o *Orchestrator) step(attempted, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress.CurrentUnit = attempted
	o.progress.Percent = attempted * 100 / total
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	o.progress.Active = false
}

// RunOne analyzes a single image under the same mutual exclusion as a batch.
func (o *Orchestrator) RunOne(ctx context.Context, imageDataURI string) (*models.UnitAnalysisResult, error) {
	if err := o.begin(1); err != nil {
		return nil, err
	}
	defer o.finish()

	o.step(1, 1)
	return o.analyzer.Analyze(ctx, imageDataURI)
}

// Run analyzes every image in order. A failed unit is logged and skipped so
// one bad frame does not abort the batch; its index simply contributes
// nothing to the result. Successful units keep their original position in
// the sequence. When every unit fails the whole run fails.
func (o *Orchestrator) Run(ctx context.Context, imageDataURIs []string) ([]models.UnitContext, error) {
	if err := o.begin(len(imageDataURIs)); err != nil {
		return nil, err
	}
	defer o.finish()

	contexts := make([]models.UnitContext, 0, len(imageDataURIs))
	for i, uri := range imageDataURIs {
		result, err := o.analyzer.Analyze(ctx, uri)
		if err != nil {
			o.log.Warn("unit analysis failed, skipping",
				"unit", i+1, "total", len(imageDataURIs), "error", err)
		} else {
			contexts = append(contexts, models.UnitContext{
				Index:        i,
				ImageDataURI: uri,
				Result:       *result,
			})
		}
		o.step(i+1, len(imageDataURIs))
	}

	if len(contexts) == 0 {
		return nil, ErrAllUnitsFailed
	}
	return contexts, nil
}
