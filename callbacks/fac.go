package callbacks

import (
	"iter"
	"math/big"
	"time"
)

// FacTask is one factor in the range [2, n] contributing to n!.
type FacTask uint64

// FacResult is FacTask unchanged; the identity function stands in for a
// real per-factor computation, kept for demonstration and testing purposes
// against the fabric's worker/callback wiring.
type FacResult uint64

// FacTasks builds the lazy sequence of factors 2..n whose product is n!.
func FacTasks(n uint64) iter.Seq[FacTask] {
	return func(yield func(FacTask) bool) {
		for i := uint64(2); i <= n; i++ {
			if !yield(FacTask(i)) {
				return
			}
		}
	}
}

// FacCompute returns task unchanged after a constant artificial delay,
// standing in for a real per-factor computation.
func FacCompute(task FacTask) (FacResult, error) {
	time.Sleep(1 * time.Second)
	return FacResult(task), nil
}

// FacAccumulate folds a stream of FacResult factors into n!.
func FacAccumulate(results iter.Seq[FacResult]) *big.Int {
	product := big.NewInt(1)
	for r := range results {
		product.Mul(product, big.NewInt(int64(r)))
	}
	return product
}
