package ea

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorListFinalizeRequiresOperators(t *testing.T) {
	err := NewOperatorList(OperatorPolicyUniform).Finalize()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestOperatorListAddValidation(t *testing.T) {
	list := NewOperatorList("")
	assert.ErrorIs(t, list.Add(nil, 1), ErrConfiguration)
	assert.ErrorIs(t, list.Add(nudgeOp{}, -1), ErrConfiguration)
	require.NoError(t, list.Add(nudgeOp{}, 1))
	require.NoError(t, list.Finalize())
	assert.ErrorIs(t, list.Add(averageOp{}, 1), ErrConfiguration)
}

func TestWeightedPolicyIgnoresZeroWeights(t *testing.T) {
	list := NewOperatorList(OperatorPolicyWeighted)
	require.NoError(t, list.Add(nudgeOp{}, 0))
	require.NoError(t, list.Add(averageOp{}, 3))
	require.NoError(t, list.Finalize())

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 500; i++ {
		assert.Equal(t, "average", list.Pick(rng).Name())
	}
	assert.Equal(t, 2, list.MaxParents())
	assert.Equal(t, 2, list.MaxOffspring())
	assert.Equal(t, "[OperatorList: policy=weighted, operators=nudge(0.00),average(3.00)]", list.String())
}

func TestWeightedPolicyNeedsPositiveWeight(t *testing.T) {
	list := NewOperatorList(OperatorPolicyWeighted)
	require.NoError(t, list.Add(nudgeOp{}, 0))
	assert.ErrorIs(t, list.Finalize(), ErrConfiguration)
}

func TestUniformPolicyPicksEveryOperator(t *testing.T) {
	list := NewOperatorList(OperatorPolicyUniform)
	require.NoError(t, list.Add(nudgeOp{}, 0))
	require.NoError(t, list.Add(averageOp{}, 5))
	require.NoError(t, list.Finalize())

	seen := map[string]int{}
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		seen[list.Pick(rng).Name()]++
	}
	assert.Len(t, seen, 2)
}
