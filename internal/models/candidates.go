package models

// Candidate facts are the output of the deterministic pre-extraction. They
// are lossy hints handed to the LLM as primary evidence; they never reach the
// committed invoice without going through the extraction result conversion.

// MaterialCandidate is a possible material position found in raw text.
// Either UnitPriceCents (with a quantity) or TotalPriceCents (bare money
// mention without a countable quantity) is set, not both.
type MaterialCandidate struct {
	Description     string   `json:"description,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	UnitPriceCents  *int64   `json:"unit_price_cents,omitempty"`
	TotalPriceCents *int64   `json:"total_price_cents,omitempty"`
	SourceText      string   `json:"source_text,omitempty"`
	Notes           []string `json:"notes,omitempty"`
}

// LaborCandidate carries recognized working hours per role.
type LaborCandidate struct {
	MeisterHours *float64 `json:"meister_hours,omitempty"`
	GeselleHours *float64 `json:"geselle_hours,omitempty"`
	Notes        []string `json:"notes,omitempty"`
}

// TravelCandidate is a recognized travel distance.
type TravelCandidate struct {
	Kilometers  float64 `json:"kilometers"`
	Description string  `json:"description"`
	SourceText  string  `json:"source_text,omitempty"`
}

// AddressCandidate is a possibly partial customer address found in raw text.
type AddressCandidate struct {
	CustomerName string   `json:"customer_name,omitempty"`
	Address      *Address `json:"address,omitempty"`
	Notes        []string `json:"notes,omitempty"`
}

// Candidates bundles all deterministic extraction results for one text.
type Candidates struct {
	Materials []MaterialCandidate `json:"materials"`
	Travel    []TravelCandidate   `json:"travel"`
	Labor     LaborCandidate      `json:"labor"`
	Address   *AddressCandidate   `json:"address,omitempty"`
}
