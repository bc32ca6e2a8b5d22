package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

type mockDynamo struct {
	putInput    *dynamodb.PutItemInput
	queryInput  *dynamodb.QueryInput
	queryOutput *dynamodb.QueryOutput
}

func (m *mockDynamo) PutItem(ctx context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = input
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInput = input
	if m.queryOutput != nil {
		return m.queryOutput, nil
	}
	return &dynamodb.QueryOutput{}, nil
}

func TestDynamoAppendAssignsDefaults(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "chat_messages")
	repo.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	msg, err := repo.Append(context.Background(), &Message{Sender: "secretary", Text: "hello"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if msg.ID == "" || msg.CreatedAt == "" {
		t.Errorf("defaults not assigned: %+v", msg)
	}
	if got := *mock.putInput.TableName; got != "chat_messages" {
		t.Errorf("table = %s", got)
	}
}

func TestDynamoListRecentReversesToDisplayOrder(t *testing.T) {
	mock := &mockDynamo{queryOutput: &dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			{
				"id":        &types.AttributeValueMemberS{Value: "m2"},
				"sender":    &types.AttributeValueMemberS{Value: "doctor"},
				"text":      &types.AttributeValueMemberS{Value: "newer"},
				"createdAt": &types.AttributeValueMemberS{Value: "2026-03-10T12:01:00Z"},
			},
			{
				"id":        &types.AttributeValueMemberS{Value: "m1"},
				"sender":    &types.AttributeValueMemberS{Value: "secretary"},
				"text":      &types.AttributeValueMemberS{Value: "older"},
				"createdAt": &types.AttributeValueMemberS{Value: "2026-03-10T12:00:00Z"},
			},
		},
	}}
	repo := NewDynamoRepository(mock, "chat_messages")

	messages, err := repo.ListRecent(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 || messages[0].ID != "m1" || messages[1].ID != "m2" {
		t.Errorf("messages not in display order: %+v", messages)
	}
	if limit := mock.queryInput.Limit; limit == nil || *limit != RecentLimit {
		t.Errorf("limit = %v", limit)
	}
}

func TestMemoryListRecentCapsAtLimit(t *testing.T) {
	repo := NewMemoryRepository()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < RecentLimit+5; i++ {
		i := i
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		if _, err := repo.Append(context.Background(), &Message{Sender: "s", Text: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	messages, err := repo.ListRecent(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != RecentLimit {
		t.Fatalf("len = %d", len(messages))
	}
	if messages[len(messages)-1].Text != fmt.Sprintf("m%d", RecentLimit+4) {
		t.Errorf("last message = %s", messages[len(messages)-1].Text)
	}
}

type recordingInvalidator struct {
	collections []string
}

func (r *recordingInvalidator) Invalidate(collection string) {
	r.collections = append(r.collections, collection)
}

func TestHandlerSendPersistsAndInvalidates(t *testing.T) {
	repo := NewMemoryRepository()
	feed := &recordingInvalidator{}
	handler := NewHandler(HandlerConfig{Repo: repo, Feed: feed, Logger: logging.Default()})

	body := `{"sender":"secretary","text":"المريض رقم ٥ وصل"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Send(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	messages, _ := repo.ListRecent(context.Background())
	if len(messages) != 1 {
		t.Fatalf("messages = %d", len(messages))
	}
	if len(feed.collections) != 1 || feed.collections[0] != "chat" {
		t.Errorf("invalidations = %v", feed.collections)
	}
}

func TestHandlerSendRequiresFields(t *testing.T) {
	handler := NewHandler(HandlerConfig{Repo: NewMemoryRepository(), Logger: logging.Default()})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"sender":"","text":"x"}`))
	rec := httptest.NewRecorder()
	handler.Send(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandlerListEmptyIsArray(t *testing.T) {
	handler := NewHandler(HandlerConfig{Repo: NewMemoryRepository(), Logger: logging.Default()})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Messages []*Message `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Messages == nil || len(out.Messages) != 0 {
		t.Errorf("messages = %v", out.Messages)
	}
}
