package dynamo

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/same-say/same-say/internal/domain/kv"
	"github.com/same-say/same-say/internal/infrastructure/dynamo/mocks"
)

var fixedNow = time.Unix(1_700_000_000, 0)

func newStore(t *testing.T) (*Store, *mocks.MockAPI) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAPI(ctrl)
	s := NewStore(api, "kv", zerolog.Nop())
	s.now = func() time.Time { return fixedNow }
	return s, api
}

func storedItem(value string, expiresAt int64) map[string]types.AttributeValue {
	it := map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: "k"},
		"value": &types.AttributeValueMemberS{Value: value},
	}
	if expiresAt != 0 {
		it["expires_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	}
	return it
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("live item", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().GetItem(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, "kv", aws.ToString(in.TableName))
				assert.True(t, aws.ToBool(in.ConsistentRead))
				assert.Equal(t, &types.AttributeValueMemberS{Value: "k"}, in.Key["pk"])
				return &dynamodb.GetItemOutput{Item: storedItem("v", fixedNow.Unix()+60)}, nil
			})

		v, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", v)
	})

	t.Run("expired item is hidden", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().GetItem(ctx, gomock.Any()).Return(&dynamodb.GetItemOutput{Item: storedItem("v", fixedNow.Unix())}, nil)

		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("missing", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().GetItem(ctx, gomock.Any()).Return(&dynamodb.GetItemOutput{}, nil)

		_, found, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("client error", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().GetItem(ctx, gomock.Any()).Return(nil, errors.New("throttled"))

		_, _, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, kv.ErrUnavailable)
	})
}

func TestStore_Set(t *testing.T) {
	ctx := context.Background()
	s, api := newStore(t)

	api.EXPECT().PutItem(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			assert.Equal(t, &types.AttributeValueMemberS{Value: "v"}, in.Item["value"])
			assert.Equal(t, &types.AttributeValueMemberN{Value: strconv.FormatInt(fixedNow.Unix()+2, 10)}, in.Item["expires_at"])
			return &dynamodb.PutItemOutput{}, nil
		})
	require.NoError(t, s.Set(ctx, "k", "v", 1500*time.Millisecond))

	api.EXPECT().PutItem(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			_, hasTTL := in.Item["expires_at"]
			assert.False(t, hasTTL)
			return &dynamodb.PutItemOutput{}, nil
		})
	require.NoError(t, s.Set(ctx, "k", "v", 0))
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("existing", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().UpdateItem(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				assert.Contains(t, aws.ToString(in.ConditionExpression), "attribute_exists(pk)")
				assert.Equal(t, "SET #v = :v REMOVE expires_at", aws.ToString(in.UpdateExpression))
				return &dynamodb.UpdateItemOutput{}, nil
			})

		ok, err := s.Update(ctx, "k", "v2", 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().UpdateItem(ctx, gomock.Any()).Return(nil, &types.ConditionalCheckFailedException{})

		ok, err := s.Update(ctx, "k", "v2", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("live item", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().DeleteItem(ctx, gomock.Any()).DoAndReturn(
			func(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
				assert.Equal(t, types.ReturnValueAllOld, in.ReturnValues)
				return &dynamodb.DeleteItemOutput{Attributes: storedItem("v", 0)}, nil
			})

		ok, err := s.Delete(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired item", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().DeleteItem(ctx, gomock.Any()).Return(&dynamodb.DeleteItemOutput{Attributes: storedItem("v", fixedNow.Unix()-1)}, nil)

		ok, err := s.Delete(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("absent", func(t *testing.T) {
		s, api := newStore(t)
		api.EXPECT().DeleteItem(ctx, gomock.Any()).Return(&dynamodb.DeleteItemOutput{}, nil)

		ok, err := s.Delete(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_Exists(t *testing.T) {
	ctx := context.Background()
	s, api := newStore(t)
	api.EXPECT().GetItem(ctx, gomock.Any()).Return(&dynamodb.GetItemOutput{Item: storedItem("v", 0)}, nil)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
