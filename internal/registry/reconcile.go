package registry

// Diff is the minimal change set turning a current membership set into a
// requested one. Applying the same requested set twice yields an empty
// Diff on the second call.
type Diff[K comparable] struct {
	ToAdd    []K
	ToRemove []K
}

// Empty reports whether the diff carries no changes at all, letting
// callers skip the datastore write entirely.
func (d Diff[K]) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Reconcile computes toRemove = current - requested and
// toAdd = requested - current. Order of the inputs is preserved in the
// output slices; duplicates in requested are collapsed.
func Reconcile[K comparable](current, requested []K) Diff[K] {
	return ReconcileResolved(current, requested, func(k K) (K, bool) {
		return k, true
	})
}

// ReconcileResolved is Reconcile with a resolution step: each requested
// entry is mapped to a key by resolve, and entries that fail to resolve
// (an unknown category slug, say) are silently dropped rather than
// failing the whole reconciliation.
func ReconcileResolved[R any, K comparable](current []K, requested []R, resolve func(R) (K, bool)) Diff[K] {
	have := make(map[K]struct{}, len(current))
	for _, k := range current {
		have[k] = struct{}{}
	}

	want := make(map[K]struct{}, len(requested))
	var diff Diff[K]
	for _, r := range requested {
		k, ok := resolve(r)
		if !ok {
			continue
		}
		if _, dup := want[k]; dup {
			continue
		}
		want[k] = struct{}{}
		if _, exists := have[k]; !exists {
			diff.ToAdd = append(diff.ToAdd, k)
		}
	}

	for _, k := range current {
		if _, keep := want[k]; !keep {
			diff.ToRemove = append(diff.ToRemove, k)
		}
	}
	return diff
}
