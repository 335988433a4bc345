package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/retry"
)

// whatsAppMessage is the WhatsApp Cloud API text message payload
type whatsAppMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

// WhatsAppSender delivers discount messages through the WhatsApp Cloud API
type WhatsAppSender struct {
	cfg        config.NotificationConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewWhatsAppSender creates a new WhatsAppSender
func NewWhatsAppSender(cfg config.NotificationConfig, log *zap.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.SendTimeout,
		},
		log: log,
	}
}

// Send delivers a discount message to the client's WhatsApp number
func (s *WhatsAppSender) Send(ctx context.Context, n apppromotion.DiscountNotification) error {
	phone := normalizePhone(n.ClientPhone)
	if phone == "" {
		return fmt.Errorf("whatsapp notification requires a client phone number")
	}

	payload := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             whatsAppTextBody{Body: discountText(n)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("whatsapp: failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages",
		strings.TrimRight(s.cfg.WhatsAppURL, "/"), s.cfg.WhatsAppNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.WhatsAppToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &retry.HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	s.log.Debug("discount whatsapp message sent",
		zap.String("invoice_number", n.InvoiceNumber))
	return nil
}

// normalizePhone strips formatting characters; the Cloud API wants digits
// with an optional leading plus
func normalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '+':
			return r
		default:
			return -1
		}
	}, phone)
	return strings.TrimSpace(cleaned)
}
