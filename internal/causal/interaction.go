package causal

import (
	"fmt"
	"math"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
)

// AnalyzeInteraction decomposes mean revenue over the four (factor1, factor2)
// cells. A cell qualifies when its row count exceeds MinCellCount; all four
// must qualify.
func (a *Analyzer) AnalyzeInteraction(p *features.Panel, pair Pair) (out contracts.InteractionOutcome) {
	out.Pair, out.Name = pair.Key(), pair.Name

	defer func() {
		if r := recover(); r != nil {
			out.Result = nil
			out.Failure = panicFailure(r)
		}
		a.record("interaction", out.Pair, out.Failure)
	}()

	out.Result, out.Failure = a.analyzeInteraction(p, pair)
	return out
}

func (a *Analyzer) analyzeInteraction(p *features.Panel, pair Pair) (*contracts.InteractionResult, *contracts.Failure) {
	f1, ok := p.Column(pair.Factor1)
	if !ok {
		return nil, contracts.Failf(contracts.FailureMissingColumn, "column %q not in panel", pair.Factor1)
	}
	f2, ok := p.Column(pair.Factor2)
	if !ok {
		return nil, contracts.Failf(contracts.FailureMissingColumn, "column %q not in panel", pair.Factor2)
	}
	revenue, ok := p.Column(OutcomeColumn)
	if !ok {
		return nil, contracts.Failf(contracts.FailureMissingColumn, "column %q not in panel", OutcomeColumn)
	}

	cells := make(map[string]contracts.CellStat, 4)
	for v1 := 0; v1 <= 1; v1++ {
		for v2 := 0; v2 <= 1; v2++ {
			count, valued := 0, 0
			sum := 0.0
			for i := range revenue {
				if f1[i] != float64(v1) || f2[i] != float64(v2) {
					continue
				}
				count++
				if !math.IsNaN(revenue[i]) {
					sum += revenue[i]
					valued++
				}
			}
			if count > a.cfg.MinCellCount && valued > 0 {
				cells[fmt.Sprintf("%d_%d", v1, v2)] = contracts.CellStat{Revenue: sum / float64(valued), Count: count}
			}
		}
	}

	if len(cells) != 4 {
		return nil, contracts.Failf(contracts.FailureInsufficientData,
			"%s: only %d of 4 cells have more than %d rows", pair.Key(), len(cells), a.cfg.MinCellCount)
	}

	baseline := cells["0_0"].Revenue
	factor1 := cells["1_0"].Revenue - baseline
	factor2 := cells["0_1"].Revenue - baseline
	combined := cells["1_1"].Revenue - baseline

	return &contracts.InteractionResult{
		InteractionEffect: combined - factor1 - factor2,
		Factor1MainEffect: factor1,
		Factor2MainEffect: factor2,
		CombinedEffect:    combined,
		GroupDetails:      cells,
		Name:              pair.Name,
	}, nil
}
