package pos

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Human-readable code prefixes.
const (
	OrderCodePrefix = "ORD-"
	SaleCodePrefix  = "SAL-"
)

// FormatOrderCode renders an order code: ORD- plus the number zero-padded
// to 3 digits.
func FormatOrderCode(n int64) string {
	return fmt.Sprintf("%s%03d", OrderCodePrefix, n)
}

// FormatSaleCode renders a sale code: SAL- plus the number zero-padded
// to 5 digits.
func FormatSaleCode(n int64) string {
	return fmt.Sprintf("%s%05d", SaleCodePrefix, n)
}

// SaleCodeNumber parses the numeric suffix of a sale code. Returns 0 for
// codes it cannot parse.
func SaleCodeNumber(code string) int64 {
	s := strings.TrimPrefix(code, SaleCodePrefix)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// NextOrderCode derives the next order code from the current maximum order
// id. If the max lookup fails it falls back to a count-based estimate,
// which is best-effort rather than guaranteed unique; the UNIQUE constraint
// on order_code turns a fallback collision into a failed insert instead of
// a duplicate code.
func NextOrderCode(ctx context.Context, store OrderStore) (string, error) {
	max, err := store.MaxOrderID(ctx)
	if err != nil {
		total, cerr := store.CountOrders(ctx)
		if cerr != nil {
			return "", fmt.Errorf("generate order code: %w", cerr)
		}
		return FormatOrderCode(total + 1), nil
	}
	return FormatOrderCode(max + 1), nil
}

// NextSaleCode derives the next sale code from the maximum numeric suffix
// already used, with the same count-based fallback as NextOrderCode. It
// accepts the narrow SaleCounter so it works both on the plain store and
// inside a completion transaction.
func NextSaleCode(ctx context.Context, c SaleCounter) (string, error) {
	max, err := c.MaxSaleNumber(ctx)
	if err != nil {
		total, cerr := c.CountSales(ctx)
		if cerr != nil {
			return "", fmt.Errorf("generate sale code: %w", cerr)
		}
		return FormatSaleCode(total + 1), nil
	}
	return FormatSaleCode(max + 1), nil
}
