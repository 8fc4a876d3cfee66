package entity

type OperationType string

const (
	OperationTypeDeposit    OperationType = "deposit"
	OperationTypeWithdrawal OperationType = "withdrawal"
)

// RawKind is the nullable sub-kind reported by the indexer.
type RawKind string

const (
	RawKindFastWithdrawal                RawKind = "fast_withdrawal"
	RawKindFastWithdrawalServiceProvider RawKind = "fast_withdrawal_service_provider"
	RawKindFastWithdrawalPayedOut        RawKind = "fast_withdrawal_payed_out"
	RawKindFastWithdrawalPayedOutExpired RawKind = "fast_withdrawal_payed_out_expired"
	RawKindFastWithdrawalPayedOutReward  RawKind = "fast_withdrawal_payed_out_reward"
)

// ActiveFastWithdrawalKinds are the kinds selected by the "fast" withdrawal filter.
var ActiveFastWithdrawalKinds = []RawKind{
	RawKindFastWithdrawalServiceProvider,
	RawKindFastWithdrawalPayedOut,
}

type TokenInfo struct {
	Decimals *int   `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

type Ticket struct {
	Token *TokenInfo `json:"token"`
}

type L1Transaction struct {
	Amount        string  `json:"amount"`
	OperationHash string  `json:"operation_hash"`
	Level         *uint64 `json:"level"`
	Ticket        *Ticket `json:"ticket"`
}

type L2Transaction struct {
	TokenID         string     `json:"token_id"`
	Amount          string     `json:"amount"`
	TransactionHash string     `json:"transaction_hash"`
	Level           *uint64    `json:"level"`
	L2Token         *TokenInfo `json:"l2_token"`
	Ticket          *Ticket    `json:"ticket"`
}

type OperationLegs struct {
	L1Transaction *L1Transaction `json:"l1_transaction"`
	L2Transaction *L2Transaction `json:"l2_transaction"`
}

// RawOperation is one bridge_operation record as returned by the indexer.
type RawOperation struct {
	ID           string         `json:"id"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	L1Account    string         `json:"l1_account"`
	L2Account    string         `json:"l2_account"`
	Status       Status         `json:"status"`
	IsSuccessful bool           `json:"is_successful"`
	IsCompleted  bool           `json:"is_completed"`
	Type         OperationType  `json:"type"`
	Kind         *RawKind       `json:"kind"`
	Deposit      *OperationLegs `json:"deposit"`
	Withdrawal   *OperationLegs `json:"withdrawal"`
}

// Legs returns the sub-record matching the operation type.
func (r *RawOperation) Legs() *OperationLegs {
	switch r.Type {
	case OperationTypeDeposit:
		return r.Deposit
	case OperationTypeWithdrawal:
		return r.Withdrawal
	default:
		return nil
	}
}
