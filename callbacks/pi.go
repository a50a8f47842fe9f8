// Package callbacks adapts the sample computations into worker.Callback
// functions and matching ventilator task sequences, one file per
// computation. Each computation owns its own task/result payload types and
// is driven through the generic Ventilator/Worker/Sink fabric rather than
// the Partition/Accumulate machinery it previously relied on.
package callbacks

import (
	"fmt"
	"iter"
	"math"
	"math/big"
)

// PiTask is one Chudnovsky iteration index to sum a partial term for.
type PiTask struct {
	K    int64
	Prec uint
}

// PiResult carries one partial sum, accumulated by the caller across all
// tasks in the series to obtain pi itself.
type PiResult struct {
	Sum *big.Float
}

// PiTasks builds the lazy sequence of iteration tasks needed to compute pi
// to the given number of decimal digits, along with the precision (in
// mantissa bits) results should be accumulated at.
func PiTasks(digits uint64) (tasks iter.Seq[PiTask], prec uint, err error) {
	if digits == 0 {
		return nil, 0, fmt.Errorf("callbacks: digits must be a positive integer")
	}

	// Decimal digits per iteration: log10(640320^3 / (24*6*2*6)).
	dpi := math.Log10(151931373056000)
	d := float64(digits)
	n := int64(math.Ceil(d / dpi))
	prec = uint(int(math.Ceil(math.Log2(10)*d)) + int(math.Ceil(math.Log10(d))) + 2)

	return func(yield func(PiTask) bool) {
		for k := int64(0); k < n; k++ {
			if !yield(PiTask{K: k, Prec: prec}) {
				return
			}
		}
	}, prec, nil
}

// PiCompute computes one Chudnovsky partial sum term:
//
//	ps = mk * lk / xk
//	mk = (6k)! / ((3k)! * (k)!^3)
//	lk = 545140134*k + 13591409
//	xk = (-262537412640768000)^k
func PiCompute(task PiTask) (PiResult, error) {
	prec := task.Prec
	k := task.K

	tmp1 := new(big.Float).SetPrec(prec)
	tmp2 := new(big.Float).SetPrec(prec)

	kf := new(big.Int).MulRange(2, k)
	k3f := new(big.Int).MulRange(k+1, 3*k)
	k3f.Mul(kf, k3f)
	k6f := new(big.Int).MulRange(3*k+1, 6*k)
	k6f.Mul(k3f, k6f)
	mkd := new(big.Int)
	mkd.Exp(kf, big.NewInt(3), nil)
	mkd.Mul(k3f, mkd)
	tmp1.SetInt(k6f)
	tmp2.SetInt(mkd)
	mk := new(big.Float).SetPrec(prec)
	mk.Quo(tmp1, tmp2)

	tmp1.SetInt64(13591409)
	tmp2.Mul(
		new(big.Float).SetPrec(prec).SetFloat64(545140134),
		new(big.Float).SetPrec(prec).SetFloat64(float64(k)))
	lk := new(big.Float).SetPrec(prec)
	lk.Add(tmp1, tmp2)

	tmp1.SetInt64(-262537412640768000)
	xk := new(big.Float).SetPrec(prec).SetFloat64(1)
	base := new(big.Float).SetPrec(prec).Set(tmp1)
	for i := int64(0); i < k; i++ {
		xk.Mul(xk, base)
	}

	ps := new(big.Float).SetPrec(prec)
	ps.Mul(mk, lk)
	ps.Quo(ps, xk)

	return PiResult{Sum: ps}, nil
}

// PiFinalize folds the accumulated partial sum into a printable value of pi
// rounded to digits decimal places.
func PiFinalize(sum *big.Float, prec uint, digits uint64) string {
	tmp1 := new(big.Float).SetPrec(prec).SetInt64(426880)
	tmp2 := new(big.Float).SetPrec(prec).SetInt64(10005)
	tmp2.Sqrt(tmp2)
	pi := new(big.Float).SetPrec(prec)
	pi.Mul(tmp1, tmp2)
	pi.Quo(pi, sum)

	return pi.Text('f', int(digits))
}
