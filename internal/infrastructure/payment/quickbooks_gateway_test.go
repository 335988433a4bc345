package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/billing"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/retry"
)

func newDiscountedInvoice(t *testing.T) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(uuid.New(), "INV-1001", uuid.New(), "jane@example.com",
		valueobject.NewMoneyUSD(decimal.NewFromInt(5000)), nil)
	require.NoError(t, err)
	require.NoError(t, inv.ApplyDiscount(decimal.NewFromInt(500)))
	return inv
}

func newQuickBooksTestGateway(t *testing.T, serverURL string) *QuickBooksGateway {
	t.Helper()
	gw, err := NewQuickBooksGateway(config.QuickBooksConfig{
		Enabled:     true,
		BaseURL:     serverURL,
		RealmID:     "realm-1",
		AccessToken: "test-token",
		Timeout:     5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return gw
}

func TestNewQuickBooksGateway_Validation(t *testing.T) {
	_, err := NewQuickBooksGateway(config.QuickBooksConfig{AccessToken: "t"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewQuickBooksGateway(config.QuickBooksConfig{RealmID: "r"}, zap.NewNop())
	assert.Error(t, err)
}

func TestQuickBooksGateway_UpdateInvoiceAmount(t *testing.T) {
	t.Run("adds a discount line matching the reduced total", func(t *testing.T) {
		var updatePayload quickBooksInvoice

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			switch {
			case r.Method == http.MethodGet && r.URL.Path == "/v3/company/realm-1/query":
				assert.Contains(t, r.URL.Query().Get("query"), "DocNumber = 'INV-1001'")
				json.NewEncoder(w).Encode(map[string]any{
					"QueryResponse": map[string]any{
						"Invoice": []quickBooksInvoice{{
							ID:        "qb-77",
							SyncToken: "3",
							DocNumber: "INV-1001",
							TotalAmt:  5000,
							Line: []quickBooksLine{{
								ID:         "1",
								DetailType: "SalesItemLineDetail",
								Amount:     5000,
							}},
						}},
					},
				})
			case r.Method == http.MethodPost && r.URL.Path == "/v3/company/realm-1/invoice":
				require.NoError(t, json.NewDecoder(r.Body).Decode(&updatePayload))
				json.NewEncoder(w).Encode(quickBooksUpdateResponse{
					Invoice: quickBooksInvoice{ID: "qb-77", SyncToken: "4"},
				})
			default:
				t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			}
		}))
		defer server.Close()

		gw := newQuickBooksTestGateway(t, server.URL)
		err := gw.UpdateInvoiceAmount(context.Background(), uuid.New(), newDiscountedInvoice(t))

		require.NoError(t, err)
		assert.Equal(t, "qb-77", updatePayload.ID)
		assert.Equal(t, "3", updatePayload.SyncToken)
		require.Len(t, updatePayload.Line, 2)
		discountLine := updatePayload.Line[1]
		assert.Equal(t, "DiscountLineDetail", discountLine.DetailType)
		assert.InDelta(t, 500, discountLine.Amount, 0.001)
		require.NotNil(t, discountLine.DiscountLineDetail)
		assert.False(t, discountLine.DiscountLineDetail.PercentBased)
	})

	t.Run("skips the update when the provider total already matches", func(t *testing.T) {
		updates := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				updates++
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"QueryResponse": map[string]any{
					"Invoice": []quickBooksInvoice{{ID: "qb-77", SyncToken: "3", TotalAmt: 4500}},
				},
			})
		}))
		defer server.Close()

		gw := newQuickBooksTestGateway(t, server.URL)
		err := gw.UpdateInvoiceAmount(context.Background(), uuid.New(), newDiscountedInvoice(t))

		require.NoError(t, err)
		assert.Equal(t, 0, updates)
	})

	t.Run("fails when no invoice matches the doc number", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"QueryResponse": map[string]any{}})
		}))
		defer server.Close()

		gw := newQuickBooksTestGateway(t, server.URL)
		err := gw.UpdateInvoiceAmount(context.Background(), uuid.New(), newDiscountedInvoice(t))

		assert.ErrorContains(t, err, "no invoice found")
	})

	t.Run("surfaces API errors with their status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"Fault":{"type":"AUTHENTICATION"}}`))
		}))
		defer server.Close()

		gw := newQuickBooksTestGateway(t, server.URL)
		err := gw.UpdateInvoiceAmount(context.Background(), uuid.New(), newDiscountedInvoice(t))

		var httpErr *retry.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	})
}
