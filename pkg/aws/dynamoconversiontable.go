package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/openfun/marsha-lambdas/pkg/service/timedtextconv"
	"github.com/openfun/marsha-lambdas/pkg/timedtext"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

// DynamoItemClient is the part of the dynamodb client used by item tables.
type DynamoItemClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoConversionTable records timed text conversions in a dynamodb table
// keyed by the uploaded object key.
type DynamoConversionTable struct {
	client    DynamoItemClient
	tableName string
}

var _ timedtextconv.Recorder = (*DynamoConversionTable)(nil)

func NewDynamoConversionTableWithClient(client DynamoItemClient, tableName string) *DynamoConversionTable {
	return &DynamoConversionTable{client: client, tableName: tableName}
}

func NewDynamoConversionTable(cfg aws.Config, tableName string) *DynamoConversionTable {
	return NewDynamoConversionTableWithClient(dynamodb.NewFromConfig(cfg), tableName)
}

// Record implements timedtextconv.Recorder. A conversion older than the one
// already recorded for the same object is dropped.
func (d *DynamoConversionTable) Record(ctx context.Context, conversion timedtextconv.Conversion) error {
	item, err := attributevalue.MarshalMap(conversionItem{
		ObjectKey:      conversion.ObjectKey,
		DestinationKey: conversion.DestinationKey,
		SourceKey:      conversion.SourceKey,
		Format:         string(conversion.Format),
		Mode:           string(conversion.Mode),
		ConvertedAt:    conversion.ConvertedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("serializing item: %w", err)
	}

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name("objectKey")),
		expression.Name("convertedAt").LessThanEqual(expression.Value(conversion.ConvertedAt.UnixMilli())),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building condition: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *dynamotypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("storing item: %w", err)
	}
	return nil
}

// Get returns the last conversion recorded for objectKey.
func (d *DynamoConversionTable) Get(ctx context.Context, objectKey string) (timedtextconv.Conversion, error) {
	key, err := attributevalue.MarshalMap(struct {
		ObjectKey string `dynamodbav:"objectKey"`
	}{objectKey})
	if err != nil {
		return timedtextconv.Conversion{}, fmt.Errorf("serializing key: %w", err)
	}
	response, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key:       key,
	})
	if err != nil {
		return timedtextconv.Conversion{}, fmt.Errorf("retrieving item: %w", err)
	}
	if response.Item == nil {
		return timedtextconv.Conversion{}, fmt.Errorf("%w: no conversion for %s", types.ErrKeyNotFound, objectKey)
	}
	var item conversionItem
	if err := attributevalue.UnmarshalMap(response.Item, &item); err != nil {
		return timedtextconv.Conversion{}, fmt.Errorf("deserializing item: %w", err)
	}
	return timedtextconv.Conversion{
		ObjectKey:      item.ObjectKey,
		DestinationKey: item.DestinationKey,
		SourceKey:      item.SourceKey,
		Format:         timedtext.Format(item.Format),
		Mode:           timedtext.Mode(item.Mode),
		ConvertedAt:    time.UnixMilli(item.ConvertedAt),
	}, nil
}

type conversionItem struct {
	ObjectKey      string `dynamodbav:"objectKey"`
	DestinationKey string `dynamodbav:"destinationKey"`
	SourceKey      string `dynamodbav:"sourceKey"`
	Format         string `dynamodbav:"format"`
	Mode           string `dynamodbav:"mode"`
	ConvertedAt    int64  `dynamodbav:"convertedAt"`
}
