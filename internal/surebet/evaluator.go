package surebet

import (
	"errors"
	"fmt"

	"github.com/oddsradar/surebet/pkg/types"
)

// ErrDegeneratePrice is returned when an outcome carries a non-positive
// price. Ingestion validation rejects those, so hitting this during
// evaluation is a data-integrity bug, not a condition to tolerate.
var ErrDegeneratePrice = errors.New("degenerate outcome price")

// Result is the outcome of evaluating one event's outcome set.
// TotalInverseOdds is populated even when the event is not a surebet so
// callers can tune thresholds against near-misses.
type Result struct {
	IsSurebet        bool
	ProfitMargin     float64 // percent, 0 when not a surebet
	TotalInverseOdds float64
	BestPrices       map[string]float64 // best price per outcome label
}

// Evaluate determines whether the outcome set of a single event contains a
// risk-free arbitrage. Outcomes sharing a label are interchangeable prices
// for the same result across bookmakers; the best (maximum) price per label
// is what a bettor would actually take. The event is a surebet when the sum
// of reciprocal best prices over all distinct labels is below 1.
//
// Pure function, safe for concurrent use.
func Evaluate(outcomes []types.Outcome) (Result, error) {
	// Fewer than two outcomes cannot form a cross-bookmaker hedge.
	if len(outcomes) < 2 {
		return Result{}, nil
	}

	best := make(map[string]float64, len(outcomes))
	for _, o := range outcomes {
		if o.Price <= 0 {
			return Result{}, fmt.Errorf("%w: %q priced %v by %s",
				ErrDegeneratePrice, o.Label, o.Price, o.Bookmaker)
		}
		current, ok := best[o.Label]
		if !ok || o.Price > current {
			best[o.Label] = o.Price
		}
	}

	var totalInverse float64
	for _, price := range best {
		totalInverse += 1 / price
	}

	result := Result{
		TotalInverseOdds: totalInverse,
		BestPrices:       best,
	}

	// A single label group means every price backs the same result: there is
	// nothing to hedge against, regardless of how the reciprocals sum.
	if len(best) >= 2 && totalInverse < 1.0 {
		result.IsSurebet = true
		result.ProfitMargin = (1 - totalInverse) * 100
	}

	return result, nil
}
