package callbacks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFacTasks_EnumeratesFactorsFromTwo(t *testing.T) {
	var got []FacTask
	for task := range FacTasks(5) {
		got = append(got, task)
	}
	require.Equal(t, []FacTask{2, 3, 4, 5}, got)
}

func TestFacTasks_EmptyForSmallN(t *testing.T) {
	var got []FacTask
	for task := range FacTasks(1) {
		got = append(got, task)
	}
	require.Empty(t, got)
}

func TestFacAccumulate_ComputesFactorial(t *testing.T) {
	results := func(yield func(FacResult) bool) {
		for _, v := range []FacResult{2, 3, 4, 5} {
			if !yield(v) {
				return
			}
		}
	}
	product := FacAccumulate(results)
	require.Equal(t, big.NewInt(120), product)
}
