// Package dynamo implements kv.Store on a DynamoDB table with a string
// partition key "pk" and a numeric TTL attribute "expires_at".
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/kv"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_api.go -package=mocks . API

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type item struct {
	PK        string `dynamodbav:"pk"`
	Value     string `dynamodbav:"value"`
	ExpiresAt int64  `dynamodbav:"expires_at,omitempty"`
}

func (i item) live(now time.Time) bool {
	return i.ExpiresAt == 0 || i.ExpiresAt > now.Unix()
}

// Store is a kv.Store backed by DynamoDB. The table's TTL feature removes
// expired items eventually; reads filter them out immediately.
type Store struct {
	api    API
	table  string
	logger zerolog.Logger
	now    func() time.Time
}

// NewClient loads the default AWS configuration for region.
func NewClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func NewStore(api API, table string, logger zerolog.Logger) *Store {
	return &Store{
		api:    api,
		table:  table,
		logger: logger.With().Str("component", "dynamo_kv").Str("table", table).Logger(),
		now:    time.Now,
	}
}

func (s *Store) key(k string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: k}}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, unavailable("get", err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return "", false, fmt.Errorf("decode item %q: %w", key, err)
	}
	if !it.live(s.now()) {
		return "", false, nil
	}
	return it.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	av, err := attributevalue.MarshalMap(item{PK: key, Value: value, ExpiresAt: s.expiry(ttl)})
	if err != nil {
		return fmt.Errorf("encode item %q: %w", key, err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Update overwrites key only if a live item exists.
func (s *Store) Update(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := strconv.FormatInt(s.now().Unix(), 10)
	values := map[string]types.AttributeValue{
		":v":   &types.AttributeValueMemberS{Value: value},
		":now": &types.AttributeValueMemberN{Value: now},
	}
	update := "SET #v = :v REMOVE expires_at"
	if exp := s.expiry(ttl); exp != 0 {
		update = "SET #v = :v, expires_at = :exp"
		values[":exp"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(exp, 10)}
	}

	_, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       s.key(key),
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("attribute_exists(pk) AND (attribute_not_exists(expires_at) OR expires_at > :now)"),
		ExpressionAttributeNames:  map[string]string{"#v": "value"},
		ExpressionAttributeValues: values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("update", err)
	}
	return true, nil
}

// Delete removes key and reports whether a live item was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	out, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          s.key(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, unavailable("delete", err)
	}
	if len(out.Attributes) == 0 {
		return false, nil
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return true, nil
	}
	return it.live(s.now()), nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

// expiry is the epoch second, rounded up, at which the item stops being
// visible. Zero means no expiry.
func (s *Store) expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	t := s.now().Add(ttl)
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: dynamodb %s: %v", kv.ErrUnavailable, op, err)
}
