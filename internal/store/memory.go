package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryStore is an in-memory Store with the same externally observable
// semantics as the DynamoDB adapter: conditional puts, existence-guarded
// updates and deletes, prefix queries in sort-key order, and GSI1 lookups.
// All operations serialize under one mutex, so concurrent map-entry updates
// merge rather than clobber each other.
type MemoryStore struct {
	mu sync.Mutex
	// partitions maps PK -> SK -> item.
	partitions map[string]map[string]Item
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{partitions: map[string]map[string]Item{}}
}

// Put writes item, honoring the must-not-exist precondition.
func (s *MemoryStore) Put(ctx context.Context, item Item, mustNotExist bool) error {
	if err := ctx.Err(); err != nil {
		return &UnavailableError{Cause: err}
	}
	pk := stringAttrValue(item, AttrPK)
	sk := stringAttrValue(item, AttrSK)
	if pk == "" || sk == "" {
		return errors.New("store: item missing PK or SK")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.partitions[pk]
	if part == nil {
		part = map[string]Item{}
		s.partitions[pk] = part
	}
	if _, exists := part[sk]; exists && mustNotExist {
		return &ConflictError{Cause: errors.New("key already exists")}
	}
	part[sk] = cloneItem(item)
	return nil
}

// Get returns the item at (pk, sk) or NotFoundError.
func (s *MemoryStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.partitions[pk][sk]
	if !ok {
		return nil, &NotFoundError{}
	}
	return cloneItem(it), nil
}

// Query returns matching items in sort-key order.
func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []Item
	if q.IndexName == "" {
		for sk, it := range s.partitions[q.PartitionKey] {
			if q.SortKeyPrefix == "" || strings.HasPrefix(sk, q.SortKeyPrefix) {
				items = append(items, cloneItem(it))
			}
		}
		sortItems(items, AttrSK, q.ScanForward)
	} else {
		for _, part := range s.partitions {
			for _, it := range part {
				if stringAttrValue(it, AttrGSI1PK) != q.PartitionKey {
					continue
				}
				if q.SortKeyPrefix != "" && !strings.HasPrefix(stringAttrValue(it, AttrGSI1SK), q.SortKeyPrefix) {
					continue
				}
				items = append(items, cloneItem(it))
			}
		}
		sortItems(items, AttrGSI1SK, q.ScanForward)
	}
	if q.Limit > 0 && int32(len(items)) > q.Limit {
		items = items[:q.Limit]
	}
	return items, nil
}

// Update applies set to an existing item and returns the updated item.
func (s *MemoryStore) Update(ctx context.Context, pk, sk string, set *UpdateSet) (Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	if set == nil || set.Empty() {
		return nil, errors.New("store: update requires at least one assignment")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.partitions[pk][sk]
	if !ok {
		return nil, &NotFoundError{}
	}
	for _, a := range set.attrs {
		it[a.name] = a.value
	}
	for _, e := range set.entries {
		m, ok := it[e.mapName].(*types.AttributeValueMemberM)
		if !ok {
			return nil, errors.New("store: map-entry update against non-map attribute " + e.mapName)
		}
		clone := cloneAttr(m).(*types.AttributeValueMemberM)
		clone.Value[e.key] = e.value
		it[e.mapName] = clone
	}
	return cloneItem(it), nil
}

// Delete removes the item at (pk, sk), failing with NotFoundError when absent.
func (s *MemoryStore) Delete(ctx context.Context, pk, sk string) error {
	if err := ctx.Err(); err != nil {
		return &UnavailableError{Cause: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.partitions[pk]
	if _, ok := part[sk]; !ok {
		return &NotFoundError{}
	}
	delete(part, sk)
	return nil
}

// TransactPut writes all items or none, with a must-not-exist condition on
// every key.
func (s *MemoryStore) TransactPut(ctx context.Context, items []Item) error {
	if err := ctx.Err(); err != nil {
		return &UnavailableError{Cause: err}
	}
	if len(items) == 0 {
		return errors.New("store: transact put requires at least one item")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		pk := stringAttrValue(it, AttrPK)
		sk := stringAttrValue(it, AttrSK)
		if pk == "" || sk == "" {
			return errors.New("store: item missing PK or SK")
		}
		if _, exists := s.partitions[pk][sk]; exists {
			return &ConflictError{Cause: errors.New("key already exists: " + pk)}
		}
	}
	for _, it := range items {
		pk := stringAttrValue(it, AttrPK)
		sk := stringAttrValue(it, AttrSK)
		part := s.partitions[pk]
		if part == nil {
			part = map[string]Item{}
			s.partitions[pk] = part
		}
		part[sk] = cloneItem(it)
	}
	return nil
}

func cloneItem(it Item) Item {
	out := make(Item, len(it))
	for k, v := range it {
		out[k] = cloneAttr(v)
	}
	return out
}

func cloneAttr(v types.AttributeValue) types.AttributeValue {
	switch av := v.(type) {
	case *types.AttributeValueMemberM:
		m := make(map[string]types.AttributeValue, len(av.Value))
		for k, nested := range av.Value {
			m[k] = cloneAttr(nested)
		}
		return &types.AttributeValueMemberM{Value: m}
	case *types.AttributeValueMemberL:
		l := make([]types.AttributeValue, len(av.Value))
		for i, nested := range av.Value {
			l[i] = cloneAttr(nested)
		}
		return &types.AttributeValueMemberL{Value: l}
	case *types.AttributeValueMemberSS:
		return &types.AttributeValueMemberSS{Value: append([]string(nil), av.Value...)}
	case *types.AttributeValueMemberNS:
		return &types.AttributeValueMemberNS{Value: append([]string(nil), av.Value...)}
	default:
		// scalar members are never mutated in place
		return v
	}
}

var _ Store = (*MemoryStore)(nil)
