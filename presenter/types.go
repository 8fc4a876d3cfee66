package presenter

import (
	"time"

	"github.com/omni/bridge-explorer/entity"
)

type TxInfo struct {
	Hash   string
	Block  *uint64 `json:",omitempty"`
	Status entity.Status
	Link   string `json:",omitempty"`
}

type TransactionInfo struct {
	ID              string
	Type            entity.OperationType
	Kind            entity.Kind `json:",omitempty"`
	Status          entity.Status
	Completed       bool
	Symbol          string
	Decimals        int
	SendingAmount   string
	ReceivingAmount string `json:",omitempty"`
	L1Account       string
	L2Account       string
	Source          *TxInfo `json:",omitempty"`
	Destination     *TxInfo `json:",omitempty"`
	SubmittedAt     time.Time
	UpdatedAt       time.Time
	ExpectedAt      *time.Time       `json:",omitempty"`
	CompletedAt     *time.Time       `json:",omitempty"`
	LinkedPayout    *TransactionInfo `json:",omitempty"`
}

type PageResult struct {
	Page         int
	PageCount    int
	Total        int
	Loading      bool
	Error        string `json:",omitempty"`
	Transactions []*TransactionInfo
}

type SearchResult struct {
	Filter *FilterInfo
	*PageResult
}

type FilterInfo struct {
	TxHash         string                `json:",omitempty"`
	Address        string                `json:",omitempty"`
	Level          *uint64               `json:",omitempty"`
	TokenSymbol    string                `json:",omitempty"`
	WithdrawalType entity.WithdrawalType `json:",omitempty"`
}

type RefreshResult struct {
	Running bool
	Changed bool
}

type StatusResult struct {
	Network    string
	Indexer    string
	Size       int
	PageSize   int
	Loading    bool
	Refreshing bool
	Watermark  *time.Time `json:",omitempty"`
	Error      string     `json:",omitempty"`
	Filter     *FilterInfo
}
