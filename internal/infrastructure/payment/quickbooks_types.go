package payment

// quickBooksQueryResponse wraps the query endpoint's envelope
type quickBooksQueryResponse struct {
	QueryResponse struct {
		Invoice []quickBooksInvoice `json:"Invoice"`
	} `json:"QueryResponse"`
}

// quickBooksInvoice is the subset of the QuickBooks invoice entity the
// gateway reads and writes
type quickBooksInvoice struct {
	ID          string           `json:"Id"`
	SyncToken   string           `json:"SyncToken"`
	DocNumber   string           `json:"DocNumber,omitempty"`
	TotalAmt    float64          `json:"TotalAmt,omitempty"`
	Line        []quickBooksLine `json:"Line,omitempty"`
	PrivateNote string           `json:"PrivateNote,omitempty"`
}

// quickBooksLine is one invoice line
type quickBooksLine struct {
	ID          string  `json:"Id,omitempty"`
	DetailType  string  `json:"DetailType"`
	Amount      float64 `json:"Amount"`
	Description string  `json:"Description,omitempty"`

	SalesItemLineDetail *quickBooksSalesItemDetail `json:"SalesItemLineDetail,omitempty"`
	DiscountLineDetail  *quickBooksDiscountDetail  `json:"DiscountLineDetail,omitempty"`
}

type quickBooksSalesItemDetail struct {
	ItemRef *quickBooksRef `json:"ItemRef,omitempty"`
}

type quickBooksDiscountDetail struct {
	PercentBased bool `json:"PercentBased"`
}

type quickBooksRef struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// quickBooksUpdateResponse wraps the update endpoint's envelope
type quickBooksUpdateResponse struct {
	Invoice quickBooksInvoice `json:"Invoice"`
}
