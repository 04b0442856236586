package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// currencyPlaces is the precision all resolved amounts are rounded to.
const currencyPlaces = 2

var (
	// ErrNoParticipants is returned when there is nothing to split between.
	ErrNoParticipants = errors.New("resolver: no participants")
	// ErrBadSuggestion is returned when the advisory response violates
	// the contract (wrong key set or a non-numeric value).
	ErrBadSuggestion = errors.New("resolver: malformed advisory suggestion")
)

// Advisor is the external collaborator consulted for a suggested
// allocation. Its output is untrusted and always re-validated.
type Advisor interface {
	Suggest(ctx context.Context, target float64, proposals map[string]float64) (map[string]float64, error)
}

// Resolver normalizes raw proposals into an allocation whose sum equals
// the category target exactly, either via the advisory collaborator or
// the deterministic proportional fallback.
type Resolver struct {
	advisor Advisor
	timeout time.Duration
}

// New creates a Resolver. A nil advisor selects the fallback strategy.
func New(advisor Advisor, timeout time.Duration) *Resolver {
	return &Resolver{advisor: advisor, timeout: timeout}
}

// Resolve produces an allocation over exactly the participants of
// proposals, summing to target at currency precision. Participants are
// ordered by name; the last participant absorbs any rounding remainder.
func (r *Resolver) Resolve(ctx context.Context, target float64, proposals map[string]float64) (map[string]float64, error) {
	names := sortedNames(proposals)
	if len(names) == 0 {
		return nil, ErrNoParticipants
	}

	if r.advisor == nil {
		return fallbackSplit(target, proposals, names), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	suggestion, err := r.advisor.Suggest(ctx, target, proposals)
	if err != nil {
		return nil, fmt.Errorf("advisory resolution failed: %w", err)
	}

	return normalizeSuggestion(target, suggestion, names)
}

// fallbackSplit is the deterministic proportional strategy. With an
// all-zero proposal sum the target is split evenly; otherwise each
// participant gets a share proportional to their proposal. The last
// participant is assigned target minus the others, making the total
// exact by construction.
func fallbackSplit(target float64, proposals map[string]float64, names []string) map[string]float64 {
	t := decimal.NewFromFloat(target).Round(currencyPlaces)

	sum := decimal.Zero
	for _, name := range names {
		sum = sum.Add(decimal.NewFromFloat(proposals[name]))
	}

	out := make(map[string]float64, len(names))
	running := decimal.Zero
	for i, name := range names {
		if i == len(names)-1 {
			out[name] = t.Sub(running).InexactFloat64()
			break
		}
		var share decimal.Decimal
		if sum.IsZero() {
			share = t.DivRound(decimal.NewFromInt(int64(len(names))), currencyPlaces)
		} else {
			share = decimal.NewFromFloat(proposals[name]).Mul(t).DivRound(sum, currencyPlaces)
		}
		out[name] = share.InexactFloat64()
		running = running.Add(share)
	}
	return out
}

// normalizeSuggestion validates an advisory response against the
// request's participant set and corrects any rounding discrepancy by
// pushing the full remainder onto the last participant.
func normalizeSuggestion(target float64, suggestion map[string]float64, names []string) (map[string]float64, error) {
	if len(suggestion) != len(names) {
		return nil, fmt.Errorf("%w: expected %d participants, got %d", ErrBadSuggestion, len(names), len(suggestion))
	}

	t := decimal.NewFromFloat(target).Round(currencyPlaces)
	out := make(map[string]float64, len(names))
	running := decimal.Zero

	for _, name := range names {
		v, ok := suggestion[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing participant %q", ErrBadSuggestion, name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-numeric value for %q", ErrBadSuggestion, name)
		}
		d := decimal.NewFromFloat(v).Round(currencyPlaces)
		out[name] = d.InexactFloat64()
		running = running.Add(d)
	}

	if diff := t.Sub(running); !diff.IsZero() {
		last := names[len(names)-1]
		out[last] = decimal.NewFromFloat(out[last]).Add(diff).InexactFloat64()
	}
	return out, nil
}

func sortedNames(proposals map[string]float64) []string {
	names := make([]string, 0, len(proposals))
	for name := range proposals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
