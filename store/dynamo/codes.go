// Package dynamo stores verification codes in a DynamoDB table keyed by the
// string attribute "id". Enable the table's TTL on the "expires" attribute to
// have DynamoDB drop stale codes.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// item is the table's wire shape.
type item struct {
	ID      string `dynamodbav:"id"`
	Type    string `dynamodbav:"type"`
	Subject string `dynamodbav:"subject"`
	Expires int64  `dynamodbav:"expires,omitempty"`
}

type CodeStore struct {
	api   API
	table string
}

var _ verification.Store = (*CodeStore)(nil)

func NewCodeStore(api API, table string) (*CodeStore, error) {
	if api == nil {
		return nil, errors.New("dynamo: client not initialized")
	}
	if table == "" {
		return nil, errors.New("dynamo: table name is required")
	}
	return &CodeStore{api: api, table: table}, nil
}

func (s *CodeStore) Put(ctx context.Context, code verification.Code) error {
	it := item{ID: code.ID, Type: string(code.Type), Subject: code.Subject}
	if !code.Expires.IsZero() {
		it.Expires = code.Expires.Unix()
	}

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("dynamo: marshal code: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		logging.ErrorLog("DynamoDB put failed [%s]: %v", utils.HashCode(code.ID), err)
		return fmt.Errorf("dynamo: put code: %w", err)
	}
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, id string) (*verification.Code, error) {
	out, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		logging.ErrorLog("DynamoDB delete failed [%s]: %v", utils.HashCode(id), err)
		return nil, fmt.Errorf("dynamo: delete code: %w", err)
	}
	if out == nil || len(out.Attributes) == 0 {
		return nil, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Attributes, &it); err != nil {
		return nil, fmt.Errorf("dynamo: unmarshal code: %w", err)
	}

	code := &verification.Code{ID: it.ID, Type: verification.Type(it.Type), Subject: it.Subject}
	if it.Expires > 0 {
		code.Expires = time.Unix(it.Expires, 0)
	}
	// TTL deletion lags; an expired item may still be returned
	if code.Expired(time.Now()) {
		return nil, nil
	}
	return code, nil
}
