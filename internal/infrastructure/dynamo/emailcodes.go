package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-user-api/internal/domain"
)

// EmailCodeRepo manages one-time email codes. PK: code.
// It also knows the users table name because redemption spans both tables
// in a single transaction.
type EmailCodeRepo struct {
	client     *dynamodb.Client
	tableName  string
	usersTable string
}

func NewEmailCodeRepo(client *dynamodb.Client, tableName, usersTable string) *EmailCodeRepo {
	return &EmailCodeRepo{client: client, tableName: tableName, usersTable: usersTable}
}

func (r *EmailCodeRepo) Put(ctx context.Context, c *domain.EmailCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal email code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *EmailCodeRepo) GetByCode(ctx context.Context, code string) (*domain.EmailCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", code),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("code not found: %w", domain.ErrNotFound)
	}
	var c domain.EmailCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Redeem deletes the code and applies userUpdates to its owner as one
// TransactWriteItems call. The attribute_exists condition on the code item
// makes redemption exactly-once: a concurrent or repeated redeem cancels the
// whole transaction, leaving the user untouched.
func (r *EmailCodeRepo) Redeem(ctx context.Context, code, userID string, userUpdates map[string]interface{}) error {
	userUpdates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(userUpdates)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.tableName),
					Key:                 strKey("code", code),
					ConditionExpression: aws.String("attribute_exists(code)"),
				},
			},
			{
				Update: &types.Update{
					TableName:                 aws.String(r.usersTable),
					Key:                       strKey("user_id", userID),
					UpdateExpression:          aws.String(expr),
					ConditionExpression:       aws.String("attribute_exists(user_id)"),
					ExpressionAttributeNames:  names,
					ExpressionAttributeValues: values,
				},
			},
		},
	})
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return fmt.Errorf("code already redeemed: %w", domain.ErrNotFound)
	}
	return err
}
