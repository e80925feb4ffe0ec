package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest is the payload accepted when recording a new sale.
type CreateSaleRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	SaleDate         time.Time       `json:"saleDate"`
	RepresentativeID int64           `json:"representativeId"`
}

// UpdateSaleRequest carries the mutable fields of a sale.
type UpdateSaleRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	RepresentativeID int64           `json:"representativeId"`
}

// SaleResponse is the projection of a Sale returned to clients.
type SaleResponse struct {
	ID               int64           `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	SaleDate         time.Time       `json:"saleDate"`
	RepresentativeID int64           `json:"representativeId"`
	CreatedOn        time.Time       `json:"createdOn"`
	UpdatedOn        time.Time       `json:"updatedOn"`
}

// Amounts are stored as NUMERIC(18,2): two decimals, sixteen integer digits.
const amountScale = 2

var maxAmount = decimal.New(1, 16)

func validateSaleFields(amount decimal.Decimal, representativeID int64) error {
	if representativeID <= 0 {
		return invalidInput("representativeId must be greater than zero")
	}
	if amount.IsNegative() {
		return invalidInput("amount must not be negative")
	}
	if !amount.Equal(amount.Round(amountScale)) {
		return invalidInput("amount must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return invalidInput("amount must be less than 10000000000000000")
	}
	return nil
}

// Validate checks the fields a sale cannot exist without.
func (r CreateSaleRequest) Validate() error {
	return validateSaleFields(r.Amount, r.RepresentativeID)
}

// Validate checks the fields a sale cannot exist without.
func (r UpdateSaleRequest) Validate() error {
	return validateSaleFields(r.Amount, r.RepresentativeID)
}

// toSale maps the request onto a new Sale stamped with now. A missing sale
// date defaults to now.
func (r CreateSaleRequest) toSale(now time.Time) *Sale {
	saleDate := r.SaleDate.UTC()
	if r.SaleDate.IsZero() {
		saleDate = now
	}
	return &Sale{
		Amount:           r.Amount,
		SaleDate:         saleDate,
		RepresentativeID: r.RepresentativeID,
		CreatedOn:        now,
		UpdatedOn:        now,
	}
}

func (r UpdateSaleRequest) applyTo(s *Sale, now time.Time) {
	s.Amount = r.Amount
	s.RepresentativeID = r.RepresentativeID
	s.UpdatedOn = now
}

// ToResponse projects a stored sale.
func ToResponse(s *Sale) SaleResponse {
	return SaleResponse{
		ID:               s.ID,
		Amount:           s.Amount,
		SaleDate:         s.SaleDate,
		RepresentativeID: s.RepresentativeID,
		CreatedOn:        s.CreatedOn,
		UpdatedOn:        s.UpdatedOn,
	}
}

// ToResponses projects a list of sales, never returning nil.
func ToResponses(sales []*Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, ToResponse(s))
	}
	return out
}
