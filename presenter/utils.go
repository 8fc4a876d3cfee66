package presenter

import (
	"fmt"
	"strings"

	"github.com/omni/bridge-explorer/entity"
)

// Explorers holds block explorer base urls of both bridge sides.
type Explorers struct {
	L1 string
	L2 string
}

func (e Explorers) l1TxLink(hash string) string {
	if e.L1 == "" || hash == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(e.L1, "/"), hash)
}

func (e Explorers) l2TxLink(hash string) string {
	if e.L2 == "" || hash == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(e.L2, "/"), hash)
}

func (e Explorers) transactionInfo(tx *entity.BridgeTransaction) *TransactionInfo {
	if tx == nil {
		return nil
	}
	info := &TransactionInfo{
		ID:              tx.ID,
		Type:            tx.Type,
		Kind:            tx.Kind,
		Status:          tx.Status(),
		Completed:       tx.Completed,
		Symbol:          tx.Symbol,
		Decimals:        tx.Decimals,
		SendingAmount:   tx.SendingAmount,
		ReceivingAmount: tx.ReceivingAmount,
		L1Account:       tx.L1Account,
		L2Account:       tx.L2Account,
		SubmittedAt:     tx.SubmittedAt,
		UpdatedAt:       tx.UpdatedAt,
		ExpectedAt:      tx.ExpectedAt,
		CompletedAt:     tx.CompletedAt,
		LinkedPayout:    e.transactionInfo(tx.LinkedPayout),
	}
	if tx.SourceChainHash != "" {
		info.Source = &TxInfo{
			Hash:   tx.SourceChainHash,
			Block:  tx.SourceBlock,
			Status: tx.SourceStatus,
			Link:   e.l1TxLink(tx.SourceChainHash),
		}
	}
	if tx.DestinationChainHash != "" {
		info.Destination = &TxInfo{
			Hash:   tx.DestinationChainHash,
			Block:  tx.DestinationBlock,
			Status: tx.DestinationStatus,
			Link:   e.l2TxLink(tx.DestinationChainHash),
		}
	}
	return info
}

func (e Explorers) transactionInfos(txs []*entity.BridgeTransaction) []*TransactionInfo {
	res := make([]*TransactionInfo, len(txs))
	for i, tx := range txs {
		res[i] = e.transactionInfo(tx)
	}
	return res
}

func filterInfo(f entity.Filter) *FilterInfo {
	return &FilterInfo{
		TxHash:         f.TxHash,
		Address:        f.Address,
		Level:          f.Level,
		TokenSymbol:    f.TokenSymbol,
		WithdrawalType: f.WithdrawalType,
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
