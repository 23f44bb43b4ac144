package types

// SubmittedItem is one user-chosen value inside a submission. ExternalID is
// the key recognized by {placeholder} substitution; Extra carries free-form
// data groups copied verbatim onto the persisted configuration line.
type SubmittedItem struct {
	ID         string                       `json:"id"`
	ExternalID string                       `json:"external_id"`
	Name       string                       `json:"name"`
	ValueName  string                       `json:"value_name"`
	Value      string                       `json:"value"`
	MainStep   string                       `json:"main_step"`
	Step       string                       `json:"step"`
	SubStep    string                       `json:"sub_step"`
	Extra      map[string]map[string]string `json:"extra,omitempty"`
}

// Submission is the user-provided state being resolved. It is request
// scoped and never persisted in this form.
type Submission struct {
	Configurator string                   `json:"configurator"`
	Items        map[string]SubmittedItem `json:"items"`
	QueryItems   map[string]string        `json:"query_items"`
	Quantity     int                      `json:"quantity"`
	Image        string                   `json:"image"`
}

// WithQueryItems returns a shallow copy of the submission with extra
// query-string items merged in, leaving the original untouched. Used to feed
// lookup-query results back into request templating.
func (s *Submission) WithQueryItems(extra map[string]string) *Submission {
	if len(extra) == 0 {
		return s
	}
	merged := make(map[string]string, len(s.QueryItems)+len(extra))
	for k, v := range s.QueryItems {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	out := *s
	out.QueryItems = merged
	return &out
}

type PriceResult struct {
	PurchasePrice float64 `json:"purchase_price"`
	CustomerPrice float64 `json:"customer_price"`
	FromPrice     float64 `json:"from_price"`
}

// Add folds another price triple into the running totals.
func (p PriceResult) Add(other PriceResult) PriceResult {
	return PriceResult{
		PurchasePrice: p.PurchasePrice + other.PurchasePrice,
		CustomerPrice: p.CustomerPrice + other.CustomerPrice,
		FromPrice:     p.FromPrice + other.FromPrice,
	}
}

type DeliveryResult struct {
	DeliveryTime      string `json:"delivery_time"`
	DeliveryTimeExtra string `json:"delivery_time_extra"`
}
