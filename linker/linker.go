package linker

import (
	"github.com/omni/bridge-explorer/entity"
)

// Lookup resolves a service-provider parent already held outside the batch.
type Lookup interface {
	ServiceProviderByHash(hash string) *entity.BridgeTransaction
}

// Index maps destination chain hashes to service-provider transactions.
type Index map[string]*entity.BridgeTransaction

func NewIndex(txs []*entity.BridgeTransaction) Index {
	idx := make(Index)
	for _, tx := range txs {
		if tx.Kind == entity.KindServiceProvider && tx.DestinationChainHash != "" {
			idx[tx.DestinationChainHash] = tx
		}
	}
	return idx
}

func (idx Index) ServiceProviderByHash(hash string) *entity.BridgeTransaction {
	return idx[hash]
}

type Result struct {
	// Kept holds the batch with every folded payout removed, in input order.
	Kept []*entity.BridgeTransaction
	// Folded holds the ids of payouts absorbed by a parent.
	Folded []string
	// Parents holds the cache entries mutated by a fold.
	Parents []*entity.BridgeTransaction
}

// Link folds every payout of the batch into its service-provider parent.
// Parents from the batch win over parents from cache, cache may be nil.
func Link(batch []*entity.BridgeTransaction, cache Lookup) *Result {
	idx := NewIndex(batch)
	res := &Result{Kept: make([]*entity.BridgeTransaction, 0, len(batch))}
	touched := make(map[*entity.BridgeTransaction]bool)
	for _, tx := range batch {
		if tx.Kind != entity.KindPayout || tx.DestinationChainHash == "" {
			res.Kept = append(res.Kept, tx)
			continue
		}
		if parent := idx.ServiceProviderByHash(tx.DestinationChainHash); parent != nil {
			Fold(parent, tx)
			res.Folded = append(res.Folded, tx.ID)
			continue
		}
		if cache != nil {
			if parent := cache.ServiceProviderByHash(tx.DestinationChainHash); parent != nil {
				Fold(parent, tx)
				res.Folded = append(res.Folded, tx.ID)
				if !touched[parent] {
					touched[parent] = true
					res.Parents = append(res.Parents, parent)
				}
				continue
			}
		}
		res.Kept = append(res.Kept, tx)
	}
	return res
}

// Fold copies the payout outcome onto its service-provider parent.
func Fold(parent, payout *entity.BridgeTransaction) {
	parent.DestinationStatus = payout.DestinationStatus
	if payout.Completed {
		parent.Completed = true
		parent.CompletedAt = payout.CompletedAt
		parent.ExpectedAt = nil
	}
	if payout.SourceChainHash != "" {
		parent.SourceChainHash = payout.SourceChainHash
		parent.SourceBlock = payout.SourceBlock
	}
	if payout.ReceivingAmount != "" {
		parent.ReceivingAmount = payout.ReceivingAmount
	}
	if payout.UpdatedAt.After(parent.UpdatedAt) {
		parent.UpdatedAt = payout.UpdatedAt
	}
	parent.LinkedPayout = payout
}
