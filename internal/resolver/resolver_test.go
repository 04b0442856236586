package resolver

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdvisor struct {
	suggestion map[string]float64
	err        error
	delay      time.Duration
}

func (f *fakeAdvisor) Suggest(ctx context.Context, target float64, proposals map[string]float64) (map[string]float64, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestion, nil
}

func sumOf(t *testing.T, m map[string]float64) float64 {
	t.Helper()
	sum := decimal.Zero
	for _, v := range m {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	f, _ := sum.Float64()
	return f
}

func TestFallbackExactProposals(t *testing.T) {
	r := New(nil, time.Second)

	got, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 70, "B": 70, "C": 60})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 70, "B": 70, "C": 60}, got)
	assert.Equal(t, 200.0, sumOf(t, got))
}

func TestFallbackUnderProposed(t *testing.T) {
	r := New(nil, time.Second)

	got, err := r.Resolve(context.Background(), 300, map[string]float64{"A": 50, "B": 50})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 150, "B": 150}, got)
}

func TestFallbackAllZeroProposals(t *testing.T) {
	r := New(nil, time.Second)

	got, err := r.Resolve(context.Background(), 90, map[string]float64{"A": 0, "B": 0, "C": 0})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 30, "B": 30, "C": 30}, got)
}

func TestFallbackRemainderGoesToLastParticipant(t *testing.T) {
	r := New(nil, time.Second)

	// 100 over three equal proposals does not split evenly at cents.
	got, err := r.Resolve(context.Background(), 100, map[string]float64{"A": 1, "B": 1, "C": 1})
	require.NoError(t, err)

	assert.Equal(t, 33.33, got["A"])
	assert.Equal(t, 33.33, got["B"])
	assert.Equal(t, 33.34, got["C"])
	assert.Equal(t, 100.0, sumOf(t, got))
}

func TestFallbackSumInvariantRandomInputs(t *testing.T) {
	r := New(nil, time.Second)
	rng := rand.New(rand.NewSource(42))
	names := []string{"A", "B", "C", "D", "E"}

	for i := 0; i < 200; i++ {
		target := math.Round(rng.Float64()*100000) / 100
		proposals := make(map[string]float64, len(names))
		for _, n := range names[:2+rng.Intn(len(names)-1)] {
			proposals[n] = math.Round(rng.Float64()*50000) / 100
		}

		got, err := r.Resolve(context.Background(), target, proposals)
		require.NoError(t, err)
		require.Len(t, got, len(proposals))
		assert.Equal(t, target, sumOf(t, got), "target=%v proposals=%v", target, proposals)
	}
}

func TestNoParticipants(t *testing.T) {
	r := New(nil, time.Second)

	_, err := r.Resolve(context.Background(), 100, map[string]float64{})
	assert.ErrorIs(t, err, ErrNoParticipants)
}

func TestAdvisorySuggestionAccepted(t *testing.T) {
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": 120, "B": 80}}
	r := New(adv, time.Second)

	got, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 150, "B": 100})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"A": 120, "B": 80}, got)
}

func TestAdvisoryRemainderCorrection(t *testing.T) {
	// The collaborator is supposed to respect the target sum, but its
	// output is untrusted: the discrepancy lands on the last participant.
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": 100, "B": 90}}
	r := New(adv, time.Second)

	got, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 120, "B": 80})
	require.NoError(t, err)

	assert.Equal(t, 100.0, got["A"])
	assert.Equal(t, 100.0, got["B"])
	assert.Equal(t, 200.0, sumOf(t, got))
}

func TestAdvisoryMissingParticipantRejected(t *testing.T) {
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": 200}}
	r := New(adv, time.Second)

	_, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 120, "B": 80})
	assert.ErrorIs(t, err, ErrBadSuggestion)
}

func TestAdvisoryExtraParticipantRejected(t *testing.T) {
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": 100, "B": 50, "Z": 50}}
	r := New(adv, time.Second)

	_, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 120, "B": 80})
	assert.ErrorIs(t, err, ErrBadSuggestion)
}

func TestAdvisoryNaNRejected(t *testing.T) {
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": math.NaN(), "B": 100}}
	r := New(adv, time.Second)

	_, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 120, "B": 80})
	assert.ErrorIs(t, err, ErrBadSuggestion)
}

func TestAdvisoryErrorPropagates(t *testing.T) {
	boom := errors.New("advisor exploded")
	adv := &fakeAdvisor{err: boom}
	r := New(adv, time.Second)

	_, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 120, "B": 80})
	assert.ErrorIs(t, err, boom)
}

func TestAdvisoryTimeout(t *testing.T) {
	adv := &fakeAdvisor{suggestion: map[string]float64{"A": 200}, delay: time.Second}
	r := New(adv, 10*time.Millisecond)

	_, err := r.Resolve(context.Background(), 200, map[string]float64{"A": 200})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
