package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// ErrNotFound is returned when a deletion target does not exist.
var ErrNotFound = errors.New("content: not found")

// Store provides persistence for articles and FAQs.
type Store interface {
	CreateArticle(ctx context.Context, article *Article) (*Article, error)
	// ListArticles returns up to limit articles, newest first.
	ListArticles(ctx context.Context, limit int) ([]*Article, error)
	DeleteArticle(ctx context.Context, id string) error

	CreateFAQ(ctx context.Context, faq *FAQ) (*FAQ, error)
	ListFAQs(ctx context.Context, limit int) ([]*FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error
}

// Both tables use a constant partition attribute with createdAt as the sort
// key, so a single Query reads each collection in chronological order.
const (
	articlesPartition = "articles"
	faqsPartition     = "faqs"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore persists content in DynamoDB.
type DynamoStore struct {
	client        dynamoAPI
	articlesTable string
	faqsTable     string
	logger        *logging.Logger
	now           func() time.Time
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a content store over the given tables.
func NewDynamoStore(client dynamoAPI, articlesTable, faqsTable string, logger *logging.Logger) *DynamoStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client:        client,
		articlesTable: articlesTable,
		faqsTable:     faqsTable,
		logger:        logger,
		now:           time.Now,
	}
}

type articleItem struct {
	Collection string `dynamodbav:"collection"`
	Article
}

type faqItem struct {
	Collection string `dynamodbav:"collection"`
	FAQ
}

func (s *DynamoStore) CreateArticle(ctx context.Context, article *Article) (*Article, error) {
	stored := *article
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC().Format(timestampLayout)

	item, err := attributevalue.MarshalMap(articleItem{Collection: articlesPartition, Article: stored})
	if err != nil {
		return nil, fmt.Errorf("content: marshal article: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.articlesTable),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("content: put article: %w", err)
	}
	return &stored, nil
}

func (s *DynamoStore) ListArticles(ctx context.Context, limit int) ([]*Article, error) {
	items, err := s.listCollection(ctx, s.articlesTable, articlesPartition, limit)
	if err != nil {
		return nil, err
	}
	articles := make([]*Article, 0, len(items))
	for _, raw := range items {
		var item articleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("content: unmarshal article: %w", err)
		}
		article := item.Article
		articles = append(articles, &article)
	}
	return articles, nil
}

func (s *DynamoStore) DeleteArticle(ctx context.Context, id string) error {
	return s.deleteByID(ctx, s.articlesTable, articlesPartition, id)
}

func (s *DynamoStore) CreateFAQ(ctx context.Context, faq *FAQ) (*FAQ, error) {
	stored := *faq
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now().UTC().Format(timestampLayout)

	item, err := attributevalue.MarshalMap(faqItem{Collection: faqsPartition, FAQ: stored})
	if err != nil {
		return nil, fmt.Errorf("content: marshal faq: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.faqsTable),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("content: put faq: %w", err)
	}
	return &stored, nil
}

func (s *DynamoStore) ListFAQs(ctx context.Context, limit int) ([]*FAQ, error) {
	items, err := s.listCollection(ctx, s.faqsTable, faqsPartition, limit)
	if err != nil {
		return nil, err
	}
	faqs := make([]*FAQ, 0, len(items))
	for _, raw := range items {
		var item faqItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("content: unmarshal faq: %w", err)
		}
		faq := item.FAQ
		faqs = append(faqs, &faq)
	}
	return faqs, nil
}

func (s *DynamoStore) DeleteFAQ(ctx context.Context, id string) error {
	return s.deleteByID(ctx, s.faqsTable, faqsPartition, id)
}

func (s *DynamoStore) listCollection(ctx context.Context, table, partition string, limit int) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	out, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("content: query %s: %w", partition, err)
	}
	return out.Items, nil
}

// deleteByID resolves the sort key by scanning the (small) collection, then
// removes the item.
func (s *DynamoStore) deleteByID(ctx context.Context, table, partition, id string) error {
	items, err := s.listCollection(ctx, table, partition, 0)
	if err != nil {
		return err
	}

	var createdAt string
	for _, raw := range items {
		attrID, ok := raw["id"].(*types.AttributeValueMemberS)
		if !ok || attrID.Value != id {
			continue
		}
		if attrCreated, ok := raw["createdAt"].(*types.AttributeValueMemberS); ok {
			createdAt = attrCreated.Value
		}
		break
	}
	if createdAt == "" {
		return ErrNotFound
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"collection": &types.AttributeValueMemberS{Value: partition},
			"createdAt":  &types.AttributeValueMemberS{Value: createdAt},
		},
	})
	if err != nil {
		return fmt.Errorf("content: delete from %s: %w", partition, err)
	}
	return nil
}
