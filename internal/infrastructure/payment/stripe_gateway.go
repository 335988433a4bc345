package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	stripeinvoice "github.com/stripe/stripe-go/v81/invoice"
	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/infrastructure/config"
)

// StripeGateway reports discounted invoice totals to Stripe. The Stripe
// invoice is located by its number and annotated with the new total;
// Stripe remains the system of record for its own line items.
type StripeGateway struct {
	log *zap.Logger
}

// NewStripeGateway creates a new StripeGateway
func NewStripeGateway(cfg config.StripeConfig, log *zap.Logger) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("stripe: api key is required")
	}
	stripe.Key = cfg.APIKey

	return &StripeGateway{log: log}, nil
}

// UpdateInvoiceAmount annotates the matching Stripe invoice with the
// discounted total
func (g *StripeGateway) UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error {
	stripeInvoiceID, err := g.findInvoiceID(ctx, inv.InvoiceNumber)
	if err != nil {
		return err
	}

	params := &stripe.InvoiceParams{
		Params: stripe.Params{Context: ctx},
	}
	params.AddMetadata("discount_applied", "true")
	params.AddMetadata("discounted_total", inv.Amount.StringFixed(2))
	params.AddMetadata("owner_id", ownerID.String())

	if _, err := stripeinvoice.Update(stripeInvoiceID, params); err != nil {
		return fmt.Errorf("stripe: failed to update invoice %s: %w", inv.InvoiceNumber, err)
	}

	g.log.Debug("stripe invoice annotated",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("stripe_invoice_id", stripeInvoiceID))
	return nil
}

// findInvoiceID resolves a Stripe invoice ID from our invoice number
func (g *StripeGateway) findInvoiceID(ctx context.Context, invoiceNumber string) (string, error) {
	params := &stripe.InvoiceSearchParams{
		SearchParams: stripe.SearchParams{
			Context: ctx,
			Query:   fmt.Sprintf("number:%q", invoiceNumber),
		},
	}

	iter := stripeinvoice.Search(params)
	for iter.Next() {
		return iter.Invoice().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("stripe: invoice search failed: %w", err)
	}

	return "", fmt.Errorf("stripe: no invoice found with number %s", invoiceNumber)
}

// Ensure StripeGateway implements ProviderGateway
var _ apppromotion.ProviderGateway = (*StripeGateway)(nil)
