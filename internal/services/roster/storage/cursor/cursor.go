// Package cursor provides opaque pagination token encoding/decoding for
// ledger history reads, plus page size and order normalization.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Direction indicates the pagination direction.
type Direction string

const (
	// DirectionForward paginates forward (seq > cursor).
	DirectionForward Direction = "fwd"
	// DirectionBackward paginates backward (seq < cursor).
	DirectionBackward Direction = "bwd"
)

// Cursor represents the internal state of a pagination token.
type Cursor struct {
	// Seq is the sequence number to paginate from.
	Seq uint64 `json:"seq"`
	// Dir is the pagination direction (fwd = seq > cursor, bwd = seq < cursor).
	Dir Direction `json:"dir"`
	// Reverse indicates whether to temporarily reverse sort order.
	// This is needed when going to a "previous" page to fetch from the near edge.
	Reverse bool `json:"rev,omitempty"`
	// FilterHash ensures tokens are invalidated if the filter changes.
	FilterHash string `json:"filter_hash,omitempty"`
	// OrderHash ensures tokens are invalidated if the order changes.
	OrderHash string `json:"order_hash,omitempty"`
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque base64 string to a cursor.
// Returns an error if the token is invalid or malformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}

	if c.Dir != DirectionForward && c.Dir != DirectionBackward {
		return Cursor{}, fmt.Errorf("invalid cursor direction: %q", c.Dir)
	}

	return c, nil
}

// HashFilter computes a short hash of the filter string for cursor validation.
// Returns empty string for empty filter.
func HashFilter(filter string) string {
	if filter == "" {
		return ""
	}
	h := sha256.Sum256([]byte(filter))
	return hex.EncodeToString(h[:8]) // 64-bit hash is sufficient for validation
}

// ValidateFilterHash checks if the cursor's filter hash matches the current filter.
// Returns an error if the filter has changed since the token was issued.
func ValidateFilterHash(c Cursor, currentFilter string) error {
	if c.FilterHash != HashFilter(currentFilter) {
		return fmt.Errorf("filter changed since token was issued")
	}
	return nil
}

// ValidateOrderHash checks if the cursor's order hash matches the current order.
// Returns an error if the order has changed since the token was issued.
func ValidateOrderHash(c Cursor, currentOrderBy string) error {
	if c.OrderHash != HashFilter(currentOrderBy) {
		return fmt.Errorf("order changed since token was issued")
	}
	return nil
}

// NewNextPageCursor creates a cursor for the page after the one ending at
// lastSeq. For ascending order that means seq > lastSeq; for descending,
// seq < lastSeq.
func NewNextPageCursor(lastSeq uint64, descending bool, filter, orderBy string) Cursor {
	dir := DirectionForward
	if descending {
		dir = DirectionBackward
	}
	return Cursor{
		Seq:        lastSeq,
		Dir:        dir,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(orderBy),
	}
}

// NewPrevPageCursor creates a cursor for the page before the one starting at
// firstSeq, with a temporary sort reversal so the store fetches the items
// nearest the cursor.
func NewPrevPageCursor(firstSeq uint64, descending bool, filter, orderBy string) Cursor {
	dir := DirectionBackward
	if descending {
		dir = DirectionForward
	}
	return Cursor{
		Seq:        firstSeq,
		Dir:        dir,
		Reverse:    true,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(orderBy),
	}
}

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// OrderByConfig configures order_by validation.
type OrderByConfig struct {
	Default string
	Allowed []string
}

// NormalizeOrderBy validates order_by and applies defaults.
func NormalizeOrderBy(orderBy string, cfg OrderByConfig) (string, error) {
	if orderBy == "" {
		return cfg.Default, nil
	}
	for _, allowed := range cfg.Allowed {
		if orderBy == allowed {
			return orderBy, nil
		}
	}
	return "", fmt.Errorf("invalid order_by: %s", orderBy)
}
