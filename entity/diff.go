package entity

type ReconcileMode string

const (
	ReconcileModeReplace ReconcileMode = "replace"
	ReconcileModeMerge   ReconcileMode = "merge"
)

// Diff describes what a single reconciliation changed in the cache.
type Diff struct {
	Mode       ReconcileMode
	Generation uint64
	Inserted   []string
	Updated    []string
	Evicted    []string
	// Folded lists payouts absorbed by a parent, whether they arrived in the
	// fetched batch or were held in the cache as orphans.
	Folded []string
}

func (d *Diff) IsEmpty() bool {
	return len(d.Inserted) == 0 && len(d.Updated) == 0 && len(d.Evicted) == 0 && len(d.Folded) == 0
}
