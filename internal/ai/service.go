package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cliniccore/clinic-ops-platform/internal/observability/metrics"
	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// ReceptionistPrompt is the persona used for patient-facing WhatsApp replies.
// The assistant speaks Egyptian Arabic, redirects bookings to the public
// site, and refuses to diagnose.
const ReceptionistPrompt = `أنت "سارة"، المساعدة الذكية في العيادة.
مهمتك: الرد على استفسارات المرضى بلهجة مصرية وتوجيههم.

القواعد:
1. تكلمي مصري مهذب ("تحت أمرك"، "يا فندم").
2. لو حجز: وجّهي المريض لصفحة الحجز على موقع العيادة.
3. لو طوارئ: "دي حالة طوارئ، لازم تتوجه لأقرب مستشفى فوراً".
4. لو سؤال طبي: "نصيحة عامة: ... بس لازم الدكتور يكشف عليك للتأكد".
5. لو تاهت منك: "ثانية واحدة، هوصلك بالسكرتارية".`

// ReplyFallback is sent when generation fails; patients never see a raw error.
const ReplyFallback = "نعتذر، النظام مشغول."

// ContentFallback is returned to the content manager when generation fails.
const ContentFallback = "No AI response"

// Service wraps a Generator with the clinic's prompts and failure fallbacks.
type Service struct {
	generator  Generator
	metrics    *metrics.AIMetrics
	logger     *logging.Logger
	bookingURL string
}

func NewService(generator Generator, m *metrics.AIMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{generator: generator, metrics: m, logger: logger}
}

// WithBookingURL gives the receptionist a concrete booking-page link to
// hand out instead of a generic "visit the clinic site".
func (s *Service) WithBookingURL(url string) *Service {
	s.bookingURL = strings.TrimSpace(url)
	return s
}

// Reply produces a receptionist answer to a patient message. Provider
// failures degrade to ReplyFallback.
func (s *Service) Reply(ctx context.Context, userText string) string {
	prompt := ReceptionistPrompt
	if s.bookingURL != "" {
		prompt += "\n\nرابط صفحة الحجز: " + s.bookingURL
	}
	text, err := s.generate(ctx, "chat", prompt, userText)
	if err != nil {
		s.logger.Error("assistant reply failed", "error", err)
		return ReplyFallback
	}
	return text
}

// DraftContent generates content-manager material for the given type
// ("article" or "faq"). Provider failures degrade to ContentFallback.
func (s *Service) DraftContent(ctx context.Context, contentType, prompt string) string {
	var instruction string
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "faq":
		instruction = fmt.Sprintf("Write a short FAQ answer for a medical clinic about: %s. Language: Arabic.", prompt)
	default:
		instruction = fmt.Sprintf("Write a short medical article (HTML format) about: %s. Language: Arabic.", prompt)
	}

	text, err := s.generate(ctx, "content", "", instruction)
	if err != nil {
		s.logger.Error("content draft failed", "type", contentType, "error", err)
		return ContentFallback
	}
	return text
}

func (s *Service) generate(ctx context.Context, purpose, systemPrompt, userText string) (string, error) {
	if s.generator == nil {
		return "", errors.New("ai: no generator configured")
	}
	start := time.Now()
	text, err := s.generator.Generate(ctx, systemPrompt, userText)
	s.metrics.ObserveGenerateLatency(purpose, time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ai: empty %s response", purpose)
	}
	return text, nil
}
