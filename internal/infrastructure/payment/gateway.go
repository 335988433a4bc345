package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apppromotion "github.com/crm/backend/internal/application/promotion"
	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/infrastructure/config"
)

// NoopGateway is used when no payment provider is configured. Sync
// requests succeed without doing anything.
type NoopGateway struct {
	log *zap.Logger
}

// NewNoopGateway creates a new NoopGateway
func NewNoopGateway(log *zap.Logger) *NoopGateway {
	return &NoopGateway{log: log}
}

// UpdateInvoiceAmount does nothing
func (g *NoopGateway) UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error {
	g.log.Debug("no payment provider configured, skipping invoice sync",
		zap.String("invoice_number", inv.InvoiceNumber))
	return nil
}

// CompositeGateway fans an invoice update out to every configured
// provider. The first failure is returned; remaining providers are still
// attempted.
type CompositeGateway struct {
	gateways []apppromotion.ProviderGateway
}

// NewCompositeGateway creates a new CompositeGateway
func NewCompositeGateway(gateways ...apppromotion.ProviderGateway) *CompositeGateway {
	return &CompositeGateway{gateways: gateways}
}

// UpdateInvoiceAmount pushes the update to every provider
func (g *CompositeGateway) UpdateInvoiceAmount(ctx context.Context, ownerID uuid.UUID, inv *billing.Invoice) error {
	var firstErr error
	for _, gw := range g.gateways {
		if err := gw.UpdateInvoiceAmount(ctx, ownerID, inv); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewProviderGateway builds the provider gateway from configuration:
// both providers, one, or a no-op when none is enabled.
func NewProviderGateway(cfg *config.Config, log *zap.Logger) (apppromotion.ProviderGateway, error) {
	var gateways []apppromotion.ProviderGateway

	if cfg.Stripe.Enabled {
		stripe, err := NewStripeGateway(cfg.Stripe, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize stripe gateway: %w", err)
		}
		gateways = append(gateways, stripe)
	}

	if cfg.QuickBooks.Enabled {
		quickbooks, err := NewQuickBooksGateway(cfg.QuickBooks, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize quickbooks gateway: %w", err)
		}
		gateways = append(gateways, quickbooks)
	}

	switch len(gateways) {
	case 0:
		return NewNoopGateway(log), nil
	case 1:
		return gateways[0], nil
	default:
		return NewCompositeGateway(gateways...), nil
	}
}

// Ensure implementations satisfy ProviderGateway
var (
	_ apppromotion.ProviderGateway = (*NoopGateway)(nil)
	_ apppromotion.ProviderGateway = (*CompositeGateway)(nil)
)
