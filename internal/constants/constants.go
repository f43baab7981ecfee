// Package constants reconciles an equation's numeric constants vector with
// the constant slots its simplified program exposes.
package constants

import (
	"fmt"
	"strings"
)

// ResizePolicy decides how an existing constants vector maps onto count
// renumbered slots. Reconcile returns the vector to install and whether the
// result still needs numeric fitting before it is trustworthy.
type ResizePolicy interface {
	Name() string
	Reconcile(existing []float64, count int) ([]float64, bool)
}

// ConservativePolicy keeps a prefix of the existing values whenever the slot
// count shrank or held steady, and falls back to a reset when it grew.
type ConservativePolicy struct{}

func (ConservativePolicy) Name() string { return "conservative" }

func (ConservativePolicy) Reconcile(existing []float64, count int) ([]float64, bool) {
	if count <= len(existing) {
		return append([]float64{}, existing[:count]...), false
	}
	return resetConstants(count)
}

// ExactReusePolicy keeps the existing values only when the slot count matches
// exactly; any change in count resets the vector.
type ExactReusePolicy struct{}

func (ExactReusePolicy) Name() string { return "exact-reuse" }

func (ExactReusePolicy) Reconcile(existing []float64, count int) ([]float64, bool) {
	if count == len(existing) {
		return append([]float64{}, existing...), false
	}
	return resetConstants(count)
}

// ResetPolicy discards the existing values unconditionally.
type ResetPolicy struct{}

func (ResetPolicy) Name() string { return "reset" }

func (ResetPolicy) Reconcile(_ []float64, count int) ([]float64, bool) {
	return resetConstants(count)
}

func resetConstants(count int) ([]float64, bool) {
	if count <= 0 {
		return []float64{}, false
	}
	fresh := make([]float64, count)
	for i := range fresh {
		fresh[i] = 1
	}
	return fresh, true
}

// NormalizePolicyName canonicalizes a policy name so configs can use common
// aliases interchangeably.
func NormalizePolicyName(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	n = strings.ReplaceAll(n, " ", "-")
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "", "default", "truncate":
		return "conservative"
	case "exact", "reuse":
		return "exact-reuse"
	case "ones", "reinitialize":
		return "reset"
	}
	return n
}

func FromName(name string) (ResizePolicy, error) {
	switch NormalizePolicyName(name) {
	case "conservative":
		return ConservativePolicy{}, nil
	case "exact-reuse":
		return ExactReusePolicy{}, nil
	case "reset":
		return ResetPolicy{}, nil
	default:
		return nil, fmt.Errorf("unsupported constants policy: %s", name)
	}
}
