package entity

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusCreated  Status = "CREATED"
	StatusSealed   Status = "SEALED"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCreated, StatusSealed, StatusFinished, StatusFailed:
		return true
	}
	return false
}

// Kind distinguishes plain transfers from the fast withdrawal family.
type Kind string

const (
	KindNone            Kind = ""
	KindFastWithdrawal  Kind = "fast_withdrawal"
	KindServiceProvider Kind = "service_provider"
	KindPayout          Kind = "payout"
	KindPayoutExpired   Kind = "payout_expired"
	KindPayoutReward    Kind = "payout_reward"
)

var rawKinds = map[RawKind]Kind{
	RawKindFastWithdrawal:                KindFastWithdrawal,
	RawKindFastWithdrawalServiceProvider: KindServiceProvider,
	RawKindFastWithdrawalPayedOut:        KindPayout,
	RawKindFastWithdrawalPayedOutExpired: KindPayoutExpired,
	RawKindFastWithdrawalPayedOutReward:  KindPayoutReward,
}

// KindFromRaw maps the indexer kind to Kind. Unknown kinds are reported with ok=false.
func KindFromRaw(raw *RawKind) (kind Kind, ok bool) {
	if raw == nil || *raw == "" {
		return KindNone, true
	}
	kind, ok = rawKinds[*raw]
	return kind, ok
}

func (k Kind) IsFastWithdrawal() bool {
	return k != KindNone
}

const UnknownSymbol = "UNKNOWN"

// BridgeTransaction is the canonical, normalized view of one bridge operation.
// Source chain is always L1 (Tezos), destination chain is always L2 (Etherlink).
type BridgeTransaction struct {
	ID                   string
	Type                 OperationType
	Kind                 Kind
	SourceChainHash      string
	DestinationChainHash string
	SourceBlock          *uint64
	DestinationBlock     *uint64
	SendingAmount        string
	ReceivingAmount      string
	Symbol               string
	Decimals             int
	SourceStatus         Status
	DestinationStatus    Status
	Completed            bool
	L1Account            string
	L2Account            string
	SubmittedAt          time.Time
	UpdatedAt            time.Time
	ExpectedAt           *time.Time
	CompletedAt          *time.Time
	LinkedPayout         *BridgeTransaction
	Raw                  *RawOperation
}

// Status is the overall lifecycle status, which is the destination side one.
func (t *BridgeTransaction) Status() Status {
	return t.DestinationStatus
}

func (t *BridgeTransaction) IsDeposit() bool {
	return t.Type == OperationTypeDeposit
}

func (t *BridgeTransaction) IsFastWithdrawal() bool {
	return t.Kind.IsFastWithdrawal()
}

// IsNewerThan orders transactions by submission time, ties broken by id.
func (t *BridgeTransaction) IsNewerThan(o *BridgeTransaction) bool {
	if !t.SubmittedAt.Equal(o.SubmittedAt) {
		return t.SubmittedAt.After(o.SubmittedAt)
	}
	return t.ID > o.ID
}

// Update copies every field of other into t, keeping t's identity.
func (t *BridgeTransaction) Update(other *BridgeTransaction) {
	*t = *other
}

func (t *BridgeTransaction) Clone() *BridgeTransaction {
	if t == nil {
		return nil
	}
	cp := *t
	cp.SourceBlock = cloneUint(t.SourceBlock)
	cp.DestinationBlock = cloneUint(t.DestinationBlock)
	cp.ExpectedAt = cloneTime(t.ExpectedAt)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.LinkedPayout = t.LinkedPayout.Clone()
	return &cp
}

func cloneUint(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
