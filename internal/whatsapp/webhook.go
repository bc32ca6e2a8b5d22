package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cliniccore/clinic-ops-platform/internal/observability/metrics"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

var tracer = otel.Tracer("cliniccore.internal.whatsapp")

// Responder produces the assistant's reply to a patient message.
type Responder interface {
	Reply(ctx context.Context, userText string) string
}

// WebhookConfig wires the WhatsApp webhook handler. AppSecret enables
// X-Hub-Signature-256 verification; leave it empty to skip (local dev).
type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
	Responder   Responder
	Sender      Sender
	Metrics     *metrics.AIMetrics
	Logger      *logging.Logger
}

// WebhookHandler handles Meta's verification handshake and inbound messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	responder   Responder
	sender      Sender
	metrics     *metrics.AIMetrics
	logger      *logging.Logger
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		responder:   cfg.Responder,
		sender:      cfg.Sender,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// HandleVerification answers the GET subscription challenge from Meta.
// Route: GET /api/webhook/whatsapp
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound processes POST webhook events. Meta requires a fast 200;
// replies are generated and sent on the request goroutine but failures only
// log, never change the response.
// Route: POST /api/webhook/whatsapp
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if h.appSecret != "" {
		if !VerifySignature(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	for _, msg := range collectMessages(event) {
		h.relay(r.Context(), msg)
	}
}

func collectMessages(event WebhookEvent) []InboundMessage {
	var out []InboundMessage
	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			out = append(out, change.Value.Messages...)
		}
	}
	return out
}

func (h *WebhookHandler) relay(ctx context.Context, msg InboundMessage) {
	ctx, span := tracer.Start(ctx, "whatsapp.relay")
	defer span.End()
	span.SetAttributes(attribute.String("whatsapp.message_type", msg.Type))

	if msg.Type != "text" || msg.Text == nil {
		// Media, reactions, statuses: acknowledged but not relayed.
		h.metrics.ObserveInbound(msg.Type, "ignored")
		return
	}

	reply := h.responder.Reply(ctx, msg.Text.Body)
	if err := h.sender.SendText(ctx, msg.From, reply); err != nil {
		h.metrics.ObserveInbound(msg.Type, "send_failed")
		h.logger.Error("whatsapp reply send failed", "error", err, "message_id", msg.ID)
		return
	}
	h.metrics.ObserveInbound(msg.Type, "replied")
	h.logger.Info("whatsapp reply sent", "message_id", msg.ID)
}

// VerifySignature checks the X-Hub-Signature-256 header against the body.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
