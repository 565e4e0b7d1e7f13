// Package store wraps a partitioned key-value store behind a small interface:
// get/put/query/update/delete by composite partition + sort key, with one
// secondary index for alternate lookup paths. The production implementation
// is DynamoDB; an in-memory implementation with the same semantics backs
// tests and local runs.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is a shorthand for a raw store record.
type Item = map[string]types.AttributeValue

// StringAttr renders a string AttributeValue.
func StringAttr(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

// BoolAttr renders a boolean AttributeValue.
func BoolAttr(b bool) types.AttributeValue { return &types.AttributeValueMemberBOOL{Value: b} }

// NumberAttr renders a numeric AttributeValue.
func NumberAttr(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)}
}

// Query describes a key-condition read. When IndexName is empty the primary
// key is queried: PartitionKey matches PK and SortKeyPrefix, when set,
// prefix-matches SK. When IndexName is set the named secondary index is
// queried instead, with PartitionKey matching the index partition attribute.
type Query struct {
	PartitionKey  string
	SortKeyPrefix string
	IndexName     string
	Limit         int32
	// ScanForward is sort-key order: true is ascending, false most-recent-first
	// when sort keys are time-ordered.
	ScanForward bool
}

// Store is the adapter contract. All operations are bounded by the calling
// context; implementations apply their own per-call timeout and a small retry
// budget for transient failures on idempotent calls only.
type Store interface {
	// Put writes item. With mustNotExist set the write fails with
	// ConflictError when the (PK, SK) pair already exists.
	Put(ctx context.Context, item Item, mustNotExist bool) error
	// Get returns the item at (pk, sk) or NotFoundError.
	Get(ctx context.Context, pk, sk string) (Item, error)
	// Query returns items matching q in sort-key order.
	Query(ctx context.Context, q Query) ([]Item, error)
	// Update applies a typed partial update to an existing item and returns
	// the full updated item; absent keys fail with NotFoundError.
	Update(ctx context.Context, pk, sk string, set *UpdateSet) (Item, error)
	// Delete removes the item at (pk, sk); absent keys fail with NotFoundError.
	Delete(ctx context.Context, pk, sk string) error
	// TransactPut writes all items atomically, each guarded by a
	// must-not-exist condition; any existing key fails the whole batch with
	// ConflictError.
	TransactPut(ctx context.Context, items []Item) error
}

// UpdateSet is an explicit partial-update builder. Only whole-attribute sets
// and single map-entry sets are expressible, so callers state exactly which
// fields change instead of diffing records at runtime.
type UpdateSet struct {
	attrs   []attrSet
	entries []mapEntrySet
}

type attrSet struct {
	name  string
	value types.AttributeValue
}

type mapEntrySet struct {
	mapName string
	key     string
	value   types.AttributeValue
}

// NewUpdate returns an empty update set.
func NewUpdate() *UpdateSet { return &UpdateSet{} }

// Set records a whole-attribute assignment.
func (u *UpdateSet) Set(name string, v types.AttributeValue) *UpdateSet {
	u.attrs = append(u.attrs, attrSet{name: name, value: v})
	return u
}

// SetMapEntry records an assignment of one entry inside a map attribute.
// The map attribute must already exist on the item.
func (u *UpdateSet) SetMapEntry(mapName, key string, v types.AttributeValue) *UpdateSet {
	u.entries = append(u.entries, mapEntrySet{mapName: mapName, key: key, value: v})
	return u
}

// Empty reports whether the update set carries no assignments.
func (u *UpdateSet) Empty() bool { return len(u.attrs) == 0 && len(u.entries) == 0 }

// Expression renders the update as a DynamoDB update expression with
// placeholder name and value maps. Names are numbered deterministically in
// insertion order so the output is stable for assertions.
func (u *UpdateSet) Expression() (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	parts := make([]string, 0, len(u.attrs)+len(u.entries))
	n := 0
	for _, a := range u.attrs {
		nameKey := fmt.Sprintf("#n%d", n)
		valKey := fmt.Sprintf(":v%d", n)
		names[nameKey] = a.name
		values[valKey] = a.value
		parts = append(parts, fmt.Sprintf("%s = %s", nameKey, valKey))
		n++
	}
	for _, e := range u.entries {
		mapKey := fmt.Sprintf("#n%d", n)
		names[mapKey] = e.mapName
		n++
		entryKey := fmt.Sprintf("#n%d", n)
		valKey := fmt.Sprintf(":v%d", n)
		names[entryKey] = e.key
		values[valKey] = e.value
		parts = append(parts, fmt.Sprintf("%s.%s = %s", mapKey, entryKey, valKey))
		n++
	}
	return "SET " + strings.Join(parts, ", "), names, values
}

// sortItems orders items by the value of the given string attribute.
func sortItems(items []Item, attr string, ascending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a := stringAttrValue(items[i], attr)
		b := stringAttrValue(items[j], attr)
		if ascending {
			return a < b
		}
		return a > b
	})
}

func stringAttrValue(it Item, attr string) string {
	if v, ok := it[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
