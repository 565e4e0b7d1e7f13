package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	awserrors "github.com/prepstack/certstudy/internal/awssdk/errors"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

// Key attribute names for the single table and its secondary index.
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"

	// IndexGSI1 is the one secondary index; it carries the alternate lookup
	// paths (email -> user, provider#exam -> sessions/goals).
	IndexGSI1 = "GSI1"
)

const (
	defaultOpTimeout     = 5 * time.Second
	defaultRetryAttempts = 2
	retryBaseDelay       = 50 * time.Millisecond
)

// DynamoAPI is the slice of the DynamoDB client used by the adapter.
type DynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoConfig configures the DynamoDB-backed store.
type DynamoConfig struct {
	TableName string
	// OpTimeout bounds each backend round trip; zero means the default.
	OpTimeout time.Duration
	// RetryAttempts is the number of retries after the first try, applied only
	// to transient failures on idempotent calls; zero means the default.
	RetryAttempts int
}

// DynamoStore implements Store on DynamoDB. It performs no caching and no
// application-level retries beyond the bounded transient budget; conditional
// conflicts surface immediately.
type DynamoStore struct {
	client DynamoAPI
	cfg    DynamoConfig
	log    logging.Logger
}

// NewDynamoStore builds a DynamoStore over the given client.
func NewDynamoStore(client DynamoAPI, cfg DynamoConfig, log logging.Logger) *DynamoStore {
	if log == nil {
		log = logging.NopLogger{}
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = defaultOpTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	return &DynamoStore{client: client, cfg: cfg, log: log}
}

// Put writes item, optionally guarded by a key-must-not-exist condition.
// Guarded puts are safe to retry on transient failure; unguarded puts are not
// retried.
func (s *DynamoStore) Put(ctx context.Context, item Item, mustNotExist bool) error {
	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.cfg.TableName),
		Item:      item,
	}
	if mustNotExist {
		in.ConditionExpression = aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)")
	}
	err := s.do(ctx, "put", mustNotExist, func(ctx context.Context) error {
		_, err := s.client.PutItem(ctx, in)
		return err
	})
	if err != nil {
		return s.mapError("put", err, false)
	}
	return nil
}

// Get reads the item at (pk, sk) with a consistent read.
func (s *DynamoStore) Get(ctx context.Context, pk, sk string) (Item, error) {
	var out *dynamodb.GetItemOutput
	err := s.do(ctx, "get", true, func(ctx context.Context) error {
		var err error
		out, err = s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(s.cfg.TableName),
			Key:            primaryKey(pk, sk),
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, s.mapError("get", err, false)
	}
	if len(out.Item) == 0 {
		return nil, &NotFoundError{}
	}
	return out.Item, nil
}

// Query runs a key-condition read against the primary key or GSI1.
func (s *DynamoStore) Query(ctx context.Context, q Query) ([]Item, error) {
	in := &dynamodb.QueryInput{
		TableName:        aws.String(s.cfg.TableName),
		ScanIndexForward: aws.Bool(q.ScanForward),
	}
	pkAttr := AttrPK
	skAttr := AttrSK
	if q.IndexName != "" {
		in.IndexName = aws.String(q.IndexName)
		pkAttr = AttrGSI1PK
		skAttr = AttrGSI1SK
	}
	expr := "#pk = :pk"
	names := map[string]string{"#pk": pkAttr}
	values := Item{":pk": StringAttr(q.PartitionKey)}
	if q.SortKeyPrefix != "" {
		expr += " AND begins_with(#sk, :skp)"
		names["#sk"] = skAttr
		values[":skp"] = StringAttr(q.SortKeyPrefix)
	}
	in.KeyConditionExpression = aws.String(expr)
	in.ExpressionAttributeNames = names
	in.ExpressionAttributeValues = values
	if q.Limit > 0 {
		in.Limit = aws.Int32(q.Limit)
	}
	var out *dynamodb.QueryOutput
	err := s.do(ctx, "query", true, func(ctx context.Context) error {
		var err error
		out, err = s.client.Query(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.mapError("query", err, false)
	}
	return out.Items, nil
}

// Update applies set to the existing item at (pk, sk) and returns the full
// updated item. The applied expression is pure assignment, so a transient
// retry cannot double-apply.
func (s *DynamoStore) Update(ctx context.Context, pk, sk string, set *UpdateSet) (Item, error) {
	if set == nil || set.Empty() {
		return nil, errors.New("store: update requires at least one assignment")
	}
	expr, names, values := set.Expression()
	in := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.cfg.TableName),
		Key:                       primaryKey(pk, sk),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
		ReturnValues:              types.ReturnValueAllNew,
	}
	var out *dynamodb.UpdateItemOutput
	err := s.do(ctx, "update", true, func(ctx context.Context) error {
		var err error
		out, err = s.client.UpdateItem(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.mapError("update", err, true)
	}
	return out.Attributes, nil
}

// Delete removes the item at (pk, sk), failing with NotFoundError when absent.
func (s *DynamoStore) Delete(ctx context.Context, pk, sk string) error {
	err := s.do(ctx, "delete", true, func(ctx context.Context) error {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:           aws.String(s.cfg.TableName),
			Key:                 primaryKey(pk, sk),
			ConditionExpression: aws.String("attribute_exists(PK) AND attribute_exists(SK)"),
		})
		return err
	})
	if err != nil {
		return s.mapError("delete", err, true)
	}
	return nil
}

// TransactPut writes items atomically with a not-exists condition on every
// key. Conditional conflicts surface immediately; the transaction is safe to
// retry on transient failure because no partial state is left behind.
func (s *DynamoStore) TransactPut(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return errors.New("store: transact put requires at least one item")
	}
	cond := "attribute_not_exists(PK) AND attribute_not_exists(SK)"
	actions := make([]types.TransactWriteItem, 0, len(items))
	for _, it := range items {
		actions = append(actions, types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(s.cfg.TableName),
			Item:                it,
			ConditionExpression: aws.String(cond),
		}})
	}
	err := s.do(ctx, "transactPut", true, func(ctx context.Context) error {
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: actions})
		return err
	})
	if err != nil {
		return s.mapError("transactPut", err, false)
	}
	return nil
}

// do runs fn under the per-op timeout, retrying transient failures up to the
// budget when the call is idempotent. Returned errors are already classified.
func (s *DynamoStore) do(ctx context.Context, op string, idempotent bool, fn func(context.Context) error) error {
	attempts := 1
	if idempotent {
		attempts += s.cfg.RetryAttempts
	}
	var last error
	for i := 0; i < attempts; i++ {
		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
		err := fn(opCtx)
		cancel()
		if err == nil {
			return nil
		}
		last = awserrors.Classify(err)
		if !awserrors.IsRetryable(last) || i == attempts-1 {
			break
		}
		s.log.Debug("store.retry", logging.Fields{"op": op, "attempt": i + 1})
		select {
		case <-ctx.Done():
			return awserrors.Classify(ctx.Err())
		case <-time.After(retryBaseDelay << i):
		}
	}
	return last
}

// mapError converts classified AWS errors to store error kinds. For guarded
// updates and deletes a conditional failure means the key is absent, so it is
// reported as NotFoundError rather than ConflictError.
func (s *DynamoStore) mapError(op string, err error, conflictMeansAbsent bool) error {
	switch {
	case awserrors.IsConflict(err):
		if conflictMeansAbsent {
			return &NotFoundError{}
		}
		return &ConflictError{Cause: err}
	case awserrors.IsRetryable(err):
		s.log.Warn("store.unavailable", logging.Fields{"op": op})
		return &UnavailableError{Cause: err}
	default:
		return &UnavailableError{Cause: err}
	}
}

func primaryKey(pk, sk string) Item {
	return Item{
		AttrPK: StringAttr(pk),
		AttrSK: StringAttr(sk),
	}
}

var _ Store = (*DynamoStore)(nil)
