package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendTextPostsCloudAPIPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody SendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SendResponse{})
	}))
	defer server.Close()

	client := NewClient("token-123", "phone-456")
	client.SetGraphAPIBase(server.URL)

	if err := client.SendText(context.Background(), "201000004444", "اهلا بيك"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotPath != "/phone-456/messages" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("auth = %s", gotAuth)
	}
	if gotBody.MessagingProduct != "whatsapp" || gotBody.To != "201000004444" || gotBody.Text.Body != "اهلا بيك" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestSendTextSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(SendResponse{Error: &APIError{Message: "invalid recipient", Code: 131026}})
	}))
	defer server.Close()

	client := NewClient("token", "phone")
	client.SetGraphAPIBase(server.URL)

	if err := client.SendText(context.Background(), "bad", "x"); err == nil {
		t.Error("expected API error")
	}
}
