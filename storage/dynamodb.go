package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"
	"github.com/google/uuid"
	"github.com/houseplants-app/plants-api/interfaces"
)

// maxArrayCASAttempts bounds the compare-and-swap loop that implements the
// atomic array transforms on DynamoDB.
const maxArrayCASAttempts = 8

// dynamoItem is the stored shape of a document. The table must have the
// string hash key "collection" and the string range key "id".
type dynamoItem struct {
	Collection string         `dynamodbav:"collection"`
	ID         string         `dynamodbav:"id"`
	Body       map[string]any `dynamodbav:"body"`
	Version    int64          `dynamodbav:"version"`
	CreatedAt  int64          `dynamodbav:"createdAt"`
}

// DynamoDBBackend implements a DocumentStore on a single DynamoDB table.
//
// Merge updates use native UpdateItem SET actions. DynamoDB has no by-value
// array removal, so ArrayUnion/ArrayRemove are a version-conditioned
// read-modify-write on the one item, retried only on a version conflict.
type DynamoDBBackend struct {
	client      *dynamodb.DynamoDB
	table       string
	encoder     *dynamodbattribute.Encoder
	log         *slog.Logger
	locationURI string
}

// NewDynamoDBBackend creates a DynamoDB store. Static credentials are optional;
// without them the default AWS credential chain is used.
func NewDynamoDBBackend(table, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*DynamoDBBackend, error) {
	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	uri := fmt.Sprintf("dynamodb://%s/%s", region, table)
	if endpoint != "" {
		uri += fmt.Sprintf("?endpoint=%s", endpoint)
	}

	return &DynamoDBBackend{
		client: dynamodb.New(sess),
		table:  table,
		encoder: dynamodbattribute.NewEncoder(func(e *dynamodbattribute.Encoder) {
			e.NullEmptyString = false
		}),
		log:         log,
		locationURI: uri,
	}, nil
}

func (b *DynamoDBBackend) key(collection, id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"collection": {S: aws.String(collection)},
		"id":         {S: aws.String(id)},
	}
}

// Get returns a document by id using a strongly consistent read.
func (b *DynamoDBBackend) Get(ctx context.Context, collection, id string) (*interfaces.Document, error) {
	item, err := b.getItem(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return item.document(), nil
}

func (b *DynamoDBBackend) getItem(ctx context.Context, collection, id string) (*dynamoItem, error) {
	out, err := b.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.table),
		Key:            b.key(collection, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, interfaces.ErrDocumentNotFound
	}

	var item dynamoItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to decode DynamoDB item: %w", err)
	}
	return &item, nil
}

// Query reads the collection partition and applies the equality filters.
func (b *DynamoDBBackend) Query(ctx context.Context, collection string, filters ...interfaces.Filter) ([]interfaces.Document, error) {
	keyCond := expression.Key("collection").Equal(expression.Value(collection))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build DynamoDB query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(b.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	}

	docs := []interfaces.Document{}
	var decodeErr error
	err = b.client.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		var items []dynamoItem
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); err != nil {
			decodeErr = err
			return false
		}
		for i := range items {
			doc := items[i].document()
			if interfaces.Matches(doc.Fields, filters) {
				docs = append(docs, *doc)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode DynamoDB items: %w", decodeErr)
	}
	return docs, nil
}

// Create puts a new item under a random id.
func (b *DynamoDBBackend) Create(ctx context.Context, collection string, fields interfaces.Fields) (string, error) {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return "", err
	}
	if normalized == nil {
		normalized = interfaces.Fields{}
	}

	item := dynamoItem{
		Collection: collection,
		ID:         uuid.NewString(),
		Body:       normalized,
		Version:    1,
		CreatedAt:  time.Now().UnixNano(),
	}
	av, err := b.encoder.Encode(item)
	if err != nil {
		return "", fmt.Errorf("failed to encode DynamoDB item: %w", err)
	}

	_, err = b.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.table),
		Item:                av.M,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put DynamoDB item: %w", err)
	}
	return item.ID, nil
}

// Update sets the given body fields with a single UpdateItem call.
func (b *DynamoDBBackend) Update(ctx context.Context, collection, id string, fields interfaces.Fields) error {
	normalized, err := interfaces.FieldsFrom(fields)
	if err != nil {
		return err
	}
	if len(normalized) == 0 {
		return nil
	}

	names := map[string]*string{"#body": aws.String("body"), "#version": aws.String("version")}
	values := map[string]*dynamodb.AttributeValue{":one": {N: aws.String("1")}}
	setExpr := ""
	i := 0
	for k, v := range normalized {
		av, err := b.encoder.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode field %q: %w", k, err)
		}
		nameKey := "#f" + strconv.Itoa(i)
		valueKey := ":v" + strconv.Itoa(i)
		names[nameKey] = aws.String(k)
		values[valueKey] = av
		if setExpr != "" {
			setExpr += ", "
		}
		setExpr += fmt.Sprintf("#body.%s = %s", nameKey, valueKey)
		i++
	}

	_, err = b.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(b.table),
		Key:                       b.key(collection, id),
		UpdateExpression:          aws.String(fmt.Sprintf("SET %s ADD #version :one", setExpr)),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if isConditionFailure(err) {
		return interfaces.ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update DynamoDB item: %w", err)
	}
	return nil
}

// Delete removes the item; deleting a missing item succeeds.
func (b *DynamoDBBackend) Delete(ctx context.Context, collection, id string) error {
	_, err := b.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.table),
		Key:       b.key(collection, id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete DynamoDB item: %w", err)
	}
	return nil
}

// ArrayUnion appends values not already present in the array field.
func (b *DynamoDBBackend) ArrayUnion(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(ctx, collection, id, field, values, unionArray)
}

// ArrayRemove removes values from the array field.
func (b *DynamoDBBackend) ArrayRemove(ctx context.Context, collection, id, field string, values ...any) error {
	return b.modifyArray(ctx, collection, id, field, values, differenceArray)
}

func (b *DynamoDBBackend) modifyArray(ctx context.Context, collection, id, field string, values []any, op func(current, values []any) []any) error {
	normalized, err := normalizeValues(values)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxArrayCASAttempts; attempt++ {
		item, err := b.getItem(ctx, collection, id)
		if err != nil {
			return err
		}
		current, err := arrayField(item.Body, field)
		if err != nil {
			return err
		}

		av, err := b.encoder.Encode(op(current, normalized))
		if err != nil {
			return fmt.Errorf("failed to encode array: %w", err)
		}

		_, err = b.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(b.table),
			Key:                 b.key(collection, id),
			UpdateExpression:    aws.String("SET #body.#field = :arr, #version = :next"),
			ConditionExpression: aws.String("#version = :current"),
			ExpressionAttributeNames: map[string]*string{
				"#body":    aws.String("body"),
				"#field":   aws.String(field),
				"#version": aws.String("version"),
			},
			ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
				":arr":     av,
				":current": {N: aws.String(strconv.FormatInt(item.Version, 10))},
				":next":    {N: aws.String(strconv.FormatInt(item.Version+1, 10))},
			},
		})
		if isConditionFailure(err) {
			b.log.Debug("DynamoDB array update lost version race",
				slog.String("collection", collection),
				slog.String("id", id),
				slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to update DynamoDB array: %w", err)
		}
		return nil
	}
	return fmt.Errorf("array update on %s/%s did not converge after %d attempts", collection, id, maxArrayCASAttempts)
}

// Available describes the table.
func (b *DynamoDBBackend) Available(ctx context.Context) bool {
	_, err := b.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(b.table),
	})
	if err != nil {
		b.log.Warn("DynamoDB table unavailable", slog.String("table", b.table), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *DynamoDBBackend) Name() string {
	return fmt.Sprintf("dynamodb-%s", b.table)
}

// LocationURI returns the URI that identifies this store.
func (b *DynamoDBBackend) LocationURI() string {
	return b.locationURI
}

// Close is a no-op; the AWS client holds no persistent connections to release.
func (b *DynamoDBBackend) Close() error {
	return nil
}

func (item *dynamoItem) document() *interfaces.Document {
	body := interfaces.Fields(item.Body)
	if body == nil {
		body = interfaces.Fields{}
	}
	return &interfaces.Document{ID: item.ID, Fields: body}
}

func isConditionFailure(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
	}
	return false
}
