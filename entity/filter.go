package entity

import "time"

type WithdrawalType string

const (
	WithdrawalTypeAll    WithdrawalType = "all"
	WithdrawalTypeNormal WithdrawalType = "normal"
	WithdrawalTypeFast   WithdrawalType = "fast"
)

func ParseWithdrawalType(s string) (WithdrawalType, error) {
	switch WithdrawalType(s) {
	case "", WithdrawalTypeAll:
		return WithdrawalTypeAll, nil
	case WithdrawalTypeNormal:
		return WithdrawalTypeNormal, nil
	case WithdrawalTypeFast:
		return WithdrawalTypeFast, nil
	}
	return "", ErrInvalidFilter
}

// Filter selects bridge operations upstream. At most one of TxHash and Address
// is expected to be set.
type Filter struct {
	TxHash         string
	Address        string
	Level          *uint64
	TokenSymbol    string
	WithdrawalType WithdrawalType
	Since          *time.Time
	Before         *time.Time
	Limit          int
	Offset         int
}

// WithoutPaging drops the fields that only make sense for a single request.
func (f Filter) WithoutPaging() Filter {
	f.Since = nil
	f.Before = nil
	f.Limit = 0
	f.Offset = 0
	return f
}

func (f Filter) IsEmpty() bool {
	return f.WithoutPaging() == Filter{} || f.WithoutPaging() == Filter{WithdrawalType: WithdrawalTypeAll}
}
