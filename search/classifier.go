package search

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	"github.com/omni/bridge-explorer/entity"
)

type Category string

const (
	CategoryBlockNumber      Category = "block_number"
	CategoryTezosAddress     Category = "tezos_address"
	CategoryTezosTxHash      Category = "tezos_tx_hash"
	CategoryEtherlinkAddress Category = "etherlink_address"
	CategoryEtherlinkTxHash  Category = "etherlink_tx_hash"
	CategoryTokenSymbol      Category = "token_symbol"
	CategoryInvalid          Category = "invalid"
)

var (
	ErrEmptyInput        = errors.New("input is empty")
	ErrUnrecognizedInput = errors.New("unrecognized format")

	blockNumberRegex = regexp.MustCompile(`^\d+$`)
	tezosHashRegex   = regexp.MustCompile(`^o[1-9A-HJ-NP-Za-km-z]{50}$`)
	hexRegex         = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)
	symbolRegex      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.\-_]{0,15}$`)

	addressPrefixes = []string{"tz1", "tz2", "tz3", "tz4", "KT1"}
)

// Sizes of base58check encoded Tezos values, decoded and as text.
const (
	addressLength    = 3 + 20 + 4
	operationLength  = 2 + 32 + 4
	checksumLength   = 4
	addressTextSize  = 36
	operationTxtSize = 51
)

type Result struct {
	Category Category
	Value    string
	Error    error
}

func (r Result) IsValid() bool {
	return r.Category != CategoryInvalid
}

func invalid(value string, err error) Result {
	return Result{Category: CategoryInvalid, Value: value, Error: err}
}

// Classify recognizes what kind of search term the user typed.
func Classify(text string) Result {
	value := strings.TrimSpace(text)
	switch {
	case value == "":
		return invalid(value, ErrEmptyInput)
	case blockNumberRegex.MatchString(value):
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return invalid(value, fmt.Errorf("block number out of range: %w", err))
		}
		return Result{Category: CategoryBlockNumber, Value: value}
	case strings.HasPrefix(value, "0x"):
		return classifyHex(value)
	case isTezosAddress(value):
		return Result{Category: CategoryTezosAddress, Value: value}
	case isTezosOperationHash(value):
		return Result{Category: CategoryTezosTxHash, Value: value}
	case hasAddressPrefix(value) && len(value) == addressTextSize:
		return invalid(value, errors.New("invalid Tezos address"))
	case strings.HasPrefix(value, "o") && len(value) == operationTxtSize:
		return invalid(value, errors.New("invalid Tezos operation hash"))
	case symbolRegex.MatchString(value):
		return Result{Category: CategoryTokenSymbol, Value: value}
	}
	return invalid(value, ErrUnrecognizedInput)
}

func classifyHex(value string) Result {
	if !hexRegex.MatchString(value) {
		return invalid(value, errors.New("invalid hexadecimal characters"))
	}
	switch len(value) - 2 {
	case 40:
		if common.IsHexAddress(value) {
			return Result{Category: CategoryEtherlinkAddress, Value: value}
		}
	case 64:
		return Result{Category: CategoryEtherlinkTxHash, Value: value}
	}
	return invalid(value, fmt.Errorf("invalid length: expected 40 or 64 hex chars, got %d", len(value)-2))
}

func hasAddressPrefix(value string) bool {
	for _, prefix := range addressPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func isTezosAddress(value string) bool {
	return hasAddressPrefix(value) && len(value) == addressTextSize && checkBase58(value, addressLength)
}

func isTezosOperationHash(value string) bool {
	return tezosHashRegex.MatchString(value) && checkBase58(value, operationLength)
}

// checkBase58 decodes a base58check value and verifies its double sha256 checksum.
func checkBase58(value string, size int) bool {
	raw, err := base58.Decode(value)
	if err != nil || len(raw) != size {
		return false
	}
	payload, checksum := raw[:size-checksumLength], raw[size-checksumLength:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return bytes.Equal(second[:checksumLength], checksum)
}

// BuildFilter routes the search term into the matching filter field.
func BuildFilter(text string, withdrawalType string) (entity.Filter, error) {
	wt, err := entity.ParseWithdrawalType(withdrawalType)
	if err != nil {
		return entity.Filter{}, fmt.Errorf("withdrawal type %q: %w", withdrawalType, err)
	}
	filter := entity.Filter{WithdrawalType: wt}
	if strings.TrimSpace(text) == "" {
		return filter, nil
	}

	res := Classify(text)
	switch res.Category {
	case CategoryTezosAddress, CategoryEtherlinkAddress:
		filter.Address = res.Value
	case CategoryTezosTxHash, CategoryEtherlinkTxHash:
		filter.TxHash = res.Value
	case CategoryBlockNumber:
		level, _ := strconv.ParseUint(res.Value, 10, 64)
		filter.Level = &level
	case CategoryTokenSymbol:
		filter.TokenSymbol = res.Value
	default:
		return entity.Filter{}, fmt.Errorf("%s: %w", res.Error, entity.ErrInvalidFilter)
	}
	return filter, nil
}
