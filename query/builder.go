package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/omni/bridge-explorer/entity"
)

const DefaultLimit = 500

const bridgeOperationsQuery = `query GetBridgeOperations($where: bridge_operation_bool_exp, $limit: Int, $offset: Int) {
  bridge_operation(where: $where, limit: $limit, offset: $offset, order_by: {created_at: desc}) {
    id
    created_at
    updated_at
    l1_account
    l2_account
    status
    is_successful
    is_completed
    type
    kind
    deposit {
      l1_transaction {
        amount
        operation_hash
        level
        ticket { token { decimals name symbol } }
      }
      l2_transaction {
        token_id
        amount
        transaction_hash
        level
        l2_token { decimals name symbol }
        ticket { token { decimals name symbol } }
      }
    }
    withdrawal {
      l1_transaction {
        amount
        operation_hash
        level
      }
      l2_transaction {
        token_id
        amount
        transaction_hash
        level
        l2_token { decimals name symbol }
        ticket { token { decimals name symbol } }
      }
    }
  }
}`

// Request is a compiled GraphQL request ready for the indexer transport.
type Request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
	// Ignored lists filter fields dropped because a higher priority identity filter was set.
	Ignored []string `json:"-"`
}

func (r *Request) Where() Predicate {
	if p, ok := r.Variables["where"].(Predicate); ok {
		return p
	}
	return Predicate{}
}

var (
	depositL1    = Field{"deposit", "l1_transaction"}
	depositL2    = Field{"deposit", "l2_transaction"}
	withdrawalL1 = Field{"withdrawal", "l1_transaction"}
	withdrawalL2 = Field{"withdrawal", "l2_transaction"}
)

func sub(base Field, path ...string) Field {
	res := make(Field, 0, len(base)+len(path))
	res = append(res, base...)
	return append(res, path...)
}

// Build compiles filter into a single where clause ANDed across categories.
// defaultLimit is used when filter.Limit is zero.
func Build(filter entity.Filter, defaultLimit int) (*Request, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("negative limit or offset: %w", entity.ErrInvalidFilter)
	}
	if _, err := entity.ParseWithdrawalType(string(filter.WithdrawalType)); err != nil {
		return nil, fmt.Errorf("unknown withdrawal type %q: %w", filter.WithdrawalType, err)
	}
	limit := filter.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var ignored []string
	var identity Predicate
	switch {
	case filter.TxHash != "":
		identity = HashPredicate(filter.TxHash)
		if filter.Address != "" {
			ignored = append(ignored, "address")
		}
	case filter.Address != "":
		identity = AddressPredicate(filter.Address)
	}

	where := And(
		identity,
		LevelPredicate(filter.Level),
		SymbolPredicate(filter.TokenSymbol),
		WithdrawalTypePredicate(filter.WithdrawalType),
		SincePredicate(filter.Since),
		BeforePredicate(filter.Before),
	)

	return &Request{
		Query: bridgeOperationsQuery,
		Variables: map[string]interface{}{
			"where":  where,
			"limit":  limit,
			"offset": filter.Offset,
		},
		Ignored: ignored,
	}, nil
}

// StripHexPrefix converts an identifier to the form stored for the L2 leg:
// no 0x prefix, lower case.
func StripHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return strings.ToLower(s)
}

func HashPredicate(hash string) Predicate {
	hash = strings.TrimSpace(hash)
	l2Hash := StripHexPrefix(hash)
	return Or(
		sub(depositL1, "operation_hash").Eq(hash),
		sub(depositL2, "transaction_hash").Eq(l2Hash),
		sub(withdrawalL1, "operation_hash").Eq(hash),
		sub(withdrawalL2, "transaction_hash").Eq(l2Hash),
	)
}

func AddressPredicate(address string) Predicate {
	address = strings.TrimSpace(address)
	return Or(
		Field{"l1_account"}.Eq(address),
		Field{"l2_account"}.Eq(StripHexPrefix(address)),
	)
}

func LevelPredicate(level *uint64) Predicate {
	if level == nil {
		return nil
	}
	return Or(
		sub(depositL1, "level").Eq(*level),
		sub(depositL2, "level").Eq(*level),
		sub(withdrawalL1, "level").Eq(*level),
		sub(withdrawalL2, "level").Eq(*level),
	)
}

func SymbolPredicate(symbol string) Predicate {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil
	}
	return Or(
		sub(depositL1, "ticket", "token", "symbol").ILike(symbol),
		sub(depositL2, "l2_token", "symbol").ILike(symbol),
		sub(withdrawalL2, "l2_token", "symbol").ILike(symbol),
		sub(withdrawalL2, "ticket", "token", "symbol").ILike(symbol),
	)
}

func WithdrawalTypePredicate(t entity.WithdrawalType) Predicate {
	kinds := make([]string, 0, len(entity.ActiveFastWithdrawalKinds))
	for _, k := range entity.ActiveFastWithdrawalKinds {
		kinds = append(kinds, string(k))
	}
	switch t {
	case entity.WithdrawalTypeFast:
		return Field{"kind"}.In(kinds)
	case entity.WithdrawalTypeNormal:
		return Or(
			Field{"kind"}.IsNull(true),
			Field{"kind"}.NotIn(kinds),
		)
	default:
		return nil
	}
}

func SincePredicate(since *time.Time) Predicate {
	if since == nil {
		return nil
	}
	return Field{"updated_at"}.Gte(since.UTC().Format(time.RFC3339Nano))
}

func BeforePredicate(before *time.Time) Predicate {
	if before == nil {
		return nil
	}
	return Field{"created_at"}.Lt(before.UTC().Format(time.RFC3339Nano))
}
