// Package billing provides the invoice side of the discount engine.
//
// This package implements the billing bounded context, which is responsible for:
//   - The Invoice aggregate and its lifecycle (draft, sent, paid, cancelled)
//   - Enforcing that an invoice is discounted at most once in its lifetime
//   - Deriving a lead's payment history from its paid invoices
//
// Key Aggregates:
//   - Invoice: An amount owed by a customer, reduced at most once by a discount
//
// Value Objects:
//   - PaymentHistory: Paid-invoice count and total for a customer email
//   - InvoiceStatus: Enumeration of invoice lifecycle states
//
// The billing domain integrates with:
//   - Promotion domain: Discounts are applied against invoice amounts
//   - Partner domain: Payment history feeds repeat-client eligibility
package billing
