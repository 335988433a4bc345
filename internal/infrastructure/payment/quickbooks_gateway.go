package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/retry"
)

const quickBooksMinorVersion = "65"

// QuickBooksGateway pushes discounted invoice totals to QuickBooks Online.
// The invoice is located by document number and a discount line is added
// so QuickBooks recomputes the total to match ours.
type QuickBooksGateway struct {
	cfg        config.QuickBooksConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewQuickBooksGateway creates a new QuickBooksGateway
func NewQuickBooksGateway(cfg config.QuickBooksConfig, log *zap.Logger) (*QuickBooksGateway, error) {
	if cfg.RealmID == "" {
		return nil, fmt.Errorf("quickbooks: realm id is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("quickbooks: access token is required")
	}

	return &QuickBooksGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}, nil
}

// UpdateInvoiceAmount adds a discount line to the matching QuickBooks
// invoice so its total matches the discounted amount
func (g *QuickBooksGateway) UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error {
	qbInvoice, err := g.findByDocNumber(ctx, inv.InvoiceNumber)
	if err != nil {
		return err
	}

	discount := decimal.NewFromFloat(qbInvoice.TotalAmt).Sub(inv.Amount)
	if !discount.IsPositive() {
		g.log.Debug("quickbooks invoice already at or below the discounted total",
			zap.String("invoice_number", inv.InvoiceNumber))
		return nil
	}

	update := quickBooksInvoice{
		ID:        qbInvoice.ID,
		SyncToken: qbInvoice.SyncToken,
		DocNumber: qbInvoice.DocNumber,
		Line: append(qbInvoice.Line, quickBooksLine{
			DetailType:         "DiscountLineDetail",
			Amount:             discount.InexactFloat64(),
			Description:        "Discount applied",
			DiscountLineDetail: &quickBooksDiscountDetail{PercentBased: false},
		}),
	}

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("quickbooks: failed to marshal invoice update: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/invoice?operation=update&minorversion=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.RealmID, quickBooksMinorVersion)

	respBody, err := g.doRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	var updateResp quickBooksUpdateResponse
	if err := json.Unmarshal(respBody, &updateResp); err != nil {
		return fmt.Errorf("quickbooks: failed to parse update response: %w", err)
	}

	g.log.Debug("quickbooks invoice discounted",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("quickbooks_invoice_id", updateResp.Invoice.ID))
	return nil
}

// findByDocNumber queries QuickBooks for the invoice with our number
func (g *QuickBooksGateway) findByDocNumber(ctx context.Context, docNumber string) (*quickBooksInvoice, error) {
	query := fmt.Sprintf("select * from Invoice where DocNumber = '%s'",
		strings.ReplaceAll(docNumber, "'", "\\'"))

	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s&minorversion=%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.RealmID,
		url.QueryEscape(query), quickBooksMinorVersion)

	respBody, err := g.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var queryResp quickBooksQueryResponse
	if err := json.Unmarshal(respBody, &queryResp); err != nil {
		return nil, fmt.Errorf("quickbooks: failed to parse query response: %w", err)
	}

	if len(queryResp.QueryResponse.Invoice) == 0 {
		return nil, fmt.Errorf("quickbooks: no invoice found with doc number %s", docNumber)
	}
	return &queryResp.QueryResponse.Invoice[0], nil
}

// doRequest performs an authenticated request against the QuickBooks API
func (g *QuickBooksGateway) doRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("quickbooks: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &retry.HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// Ensure QuickBooksGateway implements ProviderGateway
var _ apppromotion.ProviderGateway = (*QuickBooksGateway)(nil)
