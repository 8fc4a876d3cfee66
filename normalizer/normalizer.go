package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/omni/bridge-explorer/entity"
)

const (
	NativeSymbol     = "XTZ"
	NativeL1Decimals = 6
	NativeL2Decimals = 18

	WithdrawalDelay = 15 * 24 * time.Hour
	DepositDelay    = 2 * time.Minute

	opNormalize = "normalize"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

// FormatDestinationHash returns an L2 hash with a single 0x prefix.
func FormatDestinationHash(hash string) string {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return ""
	}
	if strings.HasPrefix(hash, "0x") || strings.HasPrefix(hash, "0X") {
		return "0x" + hash[2:]
	}
	return "0x" + hash
}

type asset struct {
	symbol     string
	l1Decimals int
	l2Decimals int
}

func tokenDecimals(token *entity.TokenInfo) int {
	if token == nil || token.Decimals == nil {
		return 0
	}
	return *token.Decimals
}

// resolveAsset picks symbol and precision from the ticket of the operation's
// source leg, falling back to the L2 token metadata.
func resolveAsset(raw *entity.RawOperation, legs *entity.OperationLegs) asset {
	var ticket *entity.Ticket
	if raw.Type == entity.OperationTypeDeposit && legs.L1Transaction != nil {
		ticket = legs.L1Transaction.Ticket
	}
	if ticket == nil && legs.L2Transaction != nil {
		ticket = legs.L2Transaction.Ticket
	}
	if ticket != nil && ticket.Token != nil {
		d := tokenDecimals(ticket.Token)
		return asset{symbol: symbolOrUnknown(ticket.Token.Symbol), l1Decimals: d, l2Decimals: d}
	}
	if legs.L2Transaction != nil && legs.L2Transaction.L2Token != nil {
		token := legs.L2Transaction.L2Token
		if strings.EqualFold(token.Symbol, NativeSymbol) {
			return asset{symbol: NativeSymbol, l1Decimals: NativeL1Decimals, l2Decimals: NativeL2Decimals}
		}
		d := tokenDecimals(token)
		return asset{symbol: symbolOrUnknown(token.Symbol), l1Decimals: d, l2Decimals: d}
	}
	return asset{symbol: entity.UnknownSymbol}
}

func symbolOrUnknown(s string) string {
	if s == "" {
		return entity.UnknownSymbol
	}
	return s
}

func convertAmount(amount string, precision int) (string, error) {
	if amount == "" {
		return "", nil
	}
	return ToDecimal(amount, precision)
}

func malformed(raw *entity.RawOperation, format string, args ...interface{}) error {
	id := ""
	if raw != nil {
		id = raw.ID
	}
	return entity.NewNormalizationError(opNormalize, fmt.Errorf("record %q: %s: %w", id, fmt.Sprintf(format, args...), entity.ErrMalformedRecord))
}

// Normalize converts one raw indexer record into a BridgeTransaction.
func Normalize(raw *entity.RawOperation) (*entity.BridgeTransaction, error) {
	if raw == nil {
		return nil, malformed(raw, "nil record")
	}
	if raw.ID == "" {
		return nil, malformed(raw, "missing id")
	}
	legs := raw.Legs()
	if legs == nil {
		return nil, malformed(raw, "missing %q sub-record", raw.Type)
	}
	kind, ok := entity.KindFromRaw(raw.Kind)
	if !ok {
		return nil, malformed(raw, "unknown kind %q", *raw.Kind)
	}
	if !raw.Status.Valid() {
		return nil, malformed(raw, "unknown status %q", raw.Status)
	}
	isDeposit := raw.Type == entity.OperationTypeDeposit
	if isDeposit && legs.L1Transaction == nil {
		return nil, malformed(raw, "deposit without l1 transaction")
	}
	if !isDeposit && legs.L2Transaction == nil {
		return nil, malformed(raw, "withdrawal without l2 transaction")
	}

	submittedAt, err := parseTime(raw.CreatedAt)
	if err != nil {
		return nil, malformed(raw, "created_at: %s", err)
	}
	updatedAt := submittedAt
	if raw.UpdatedAt != "" {
		if updatedAt, err = parseTime(raw.UpdatedAt); err != nil {
			return nil, malformed(raw, "updated_at: %s", err)
		}
	}

	a := resolveAsset(raw, legs)
	tx := &entity.BridgeTransaction{
		ID:                raw.ID,
		Type:              raw.Type,
		Kind:              kind,
		Symbol:            a.symbol,
		SourceStatus:      raw.Status,
		DestinationStatus: raw.Status,
		L1Account:         raw.L1Account,
		L2Account:         raw.L2Account,
		SubmittedAt:       submittedAt,
		UpdatedAt:         updatedAt,
		Raw:               raw,
	}

	var l1Amount, l2Amount string
	if l1 := legs.L1Transaction; l1 != nil {
		tx.SourceChainHash = l1.OperationHash
		tx.SourceBlock = l1.Level
		if l1Amount, err = convertAmount(l1.Amount, a.l1Decimals); err != nil {
			return nil, malformed(raw, "l1 amount: %s", err)
		}
	}
	if l2 := legs.L2Transaction; l2 != nil {
		tx.DestinationChainHash = FormatDestinationHash(l2.TransactionHash)
		tx.DestinationBlock = l2.Level
		if l2Amount, err = convertAmount(l2.Amount, a.l2Decimals); err != nil {
			return nil, malformed(raw, "l2 amount: %s", err)
		}
	}
	if isDeposit {
		tx.SendingAmount, tx.ReceivingAmount, tx.Decimals = l1Amount, l2Amount, a.l1Decimals
	} else {
		tx.SendingAmount, tx.ReceivingAmount, tx.Decimals = l2Amount, l1Amount, a.l2Decimals
	}

	if kind == entity.KindServiceProvider {
		tx.DestinationStatus = entity.StatusPending
	}

	delay := DepositDelay
	if !isDeposit && !kind.IsFastWithdrawal() {
		delay = WithdrawalDelay
	}
	expectedAt := submittedAt.Add(delay)
	tx.ExpectedAt = &expectedAt

	if raw.IsCompleted {
		completedAt := updatedAt
		tx.Completed = true
		tx.CompletedAt = &completedAt
		tx.ExpectedAt = nil
	}
	return tx, nil
}

// NormalizeBatch normalizes every record or fails as a whole.
func NormalizeBatch(raws []*entity.RawOperation) ([]*entity.BridgeTransaction, error) {
	res := make([]*entity.BridgeTransaction, 0, len(raws))
	for _, raw := range raws {
		tx, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, tx)
	}
	return res, nil
}
