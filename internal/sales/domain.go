package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents a sales transaction attributed to a representative.
// Amount is a text column so SQLite does not coerce it to a float.
type Sale struct {
	ID               int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:text;not null"`
	SaleDate         time.Time       `json:"saleDate" gorm:"not null;index"`
	RepresentativeID int64           `json:"representativeId" gorm:"not null;index"`
	CreatedOn        time.Time       `json:"createdOn" gorm:"not null"`
	UpdatedOn        time.Time       `json:"updatedOn" gorm:"not null"`
}

// TableName pins the table name shared by every storage backend.
func (Sale) TableName() string { return "sales" }

// Filter narrows a sales listing. The date range only applies when both
// bounds are set; the representative only applies when positive.
type Filter struct {
	StartDate        *time.Time
	EndDate          *time.Time
	RepresentativeID int64
}

func (f Filter) hasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}

func (f Filter) hasRepresentative() bool {
	return f.RepresentativeID > 0
}

// Matches reports whether the sale satisfies the filter. Both bounds are inclusive.
func (f Filter) Matches(s *Sale) bool {
	if f.hasDateRange() {
		if s.SaleDate.Before(*f.StartDate) || s.SaleDate.After(*f.EndDate) {
			return false
		}
	}
	if f.hasRepresentative() && s.RepresentativeID != f.RepresentativeID {
		return false
	}
	return true
}

// Summary aggregates sales for the dashboard.
type Summary struct {
	Quantity        int                     `json:"quantity"`
	TotalAmount     decimal.Decimal         `json:"totalAmount"`
	AverageAmount   decimal.Decimal         `json:"averageAmount"`
	Representatives []RepresentativeSummary `json:"representatives"`
}

type RepresentativeSummary struct {
	RepresentativeID int64           `json:"representativeId"`
	Quantity         int             `json:"quantity"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}
