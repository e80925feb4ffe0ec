package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Error para datos de entrada inválidos
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidFilter is returned when neither a full date range nor a
// representative was supplied to GetByFilters.
var ErrInvalidFilter = errors.New("invalid filter: a date range or a representative is required")

// ErrPersistence wraps every storage failure. Callers must not show the
// wrapped detail to clients.
var ErrPersistence = errors.New("persistence failure")

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Service provides high-level sales management operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Service{
		storage: storage,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// persistenceError logs the storage failure with its context and masks it.
func (s *Service) persistenceError(op string, err error, fields ...zap.Field) error {
	s.logger.Error("sale storage failure", append(fields, zap.String("operation", op), zap.Error(err))...)
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// CreateSale records a new sale and returns its stored projection.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest) (SaleResponse, error) {
	if err := req.Validate(); err != nil {
		return SaleResponse{}, err
	}

	sale := req.toSale(s.now())
	if err := s.storage.Create(ctx, sale); err != nil {
		return SaleResponse{}, s.persistenceError("create", err, zap.Int64("representative_id", req.RepresentativeID))
	}

	s.logger.Info("sale created", zap.Int64("sale_id", sale.ID), zap.Int64("representative_id", sale.RepresentativeID))
	return ToResponse(sale), nil
}

// GetSale returns the sale with the given ID or ErrNotFound.
func (s *Service) GetSale(ctx context.Context, id int64) (SaleResponse, error) {
	sale, err := s.read(ctx, "get", id)
	if err != nil {
		return SaleResponse{}, err
	}
	return ToResponse(sale), nil
}

// GetAllSales returns every sale. An empty store yields an empty list.
func (s *Service) GetAllSales(ctx context.Context) ([]SaleResponse, error) {
	sales, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, s.persistenceError("get_all", err)
	}
	return ToResponses(sales), nil
}

// UpdateSale overwrites amount and representative and returns the stored record.
func (s *Service) UpdateSale(ctx context.Context, id int64, req UpdateSaleRequest) (SaleResponse, error) {
	if err := req.Validate(); err != nil {
		return SaleResponse{}, err
	}

	sale, err := s.read(ctx, "update", id)
	if err != nil {
		return SaleResponse{}, err
	}

	req.applyTo(sale, s.now())
	if err := s.storage.Update(ctx, sale); err != nil {
		if errors.Is(err, ErrNotFound) {
			return SaleResponse{}, ErrNotFound
		}
		return SaleResponse{}, s.persistenceError("update", err, zap.Int64("sale_id", id))
	}

	s.logger.Info("sale updated", zap.Int64("sale_id", id), zap.String("amount", sale.Amount.String()))
	return ToResponse(sale), nil
}

// DeleteSale removes the sale and returns what was deleted.
func (s *Service) DeleteSale(ctx context.Context, id int64) (SaleResponse, error) {
	sale, err := s.read(ctx, "delete", id)
	if err != nil {
		return SaleResponse{}, err
	}

	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return SaleResponse{}, ErrNotFound
		}
		return SaleResponse{}, s.persistenceError("delete", err, zap.Int64("sale_id", id))
	}

	s.logger.Info("sale deleted", zap.Int64("sale_id", id))
	return ToResponse(sale), nil
}

// GetByFilters lists sales inside an inclusive date range, optionally narrowed
// by representative, or by representative alone. Anything else is ErrInvalidFilter.
func (s *Service) GetByFilters(ctx context.Context, filter Filter) ([]SaleResponse, error) {
	switch {
	case filter.hasDateRange():
	case filter.hasRepresentative():
		// A lone bound is ignored, the same as no dates at all.
		filter.StartDate, filter.EndDate = nil, nil
	default:
		s.logger.Warn("invalid sales filter",
			zap.Bool("has_start_date", filter.StartDate != nil),
			zap.Bool("has_end_date", filter.EndDate != nil),
			zap.Int64("representative_id", filter.RepresentativeID),
		)
		return nil, ErrInvalidFilter
	}

	sales, err := s.storage.Find(ctx, filter)
	if err != nil {
		return nil, s.persistenceError("filter", err, zap.Int64("representative_id", filter.RepresentativeID))
	}

	s.logger.Info("sales search completed",
		zap.Int64("representative_filter", filter.RepresentativeID),
		zap.Int("results_count", len(sales)),
	)
	return ToResponses(sales), nil
}

// Summarize aggregates all sales for the dashboard.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	sales, err := s.storage.GetAll(ctx)
	if err != nil {
		return Summary{}, s.persistenceError("summarize", err)
	}

	summary := Summary{
		TotalAmount:     decimal.Zero,
		AverageAmount:   decimal.Zero,
		Representatives: make([]RepresentativeSummary, 0),
	}
	byRep := map[int64]*RepresentativeSummary{}
	for _, sale := range sales {
		summary.Quantity++
		summary.TotalAmount = summary.TotalAmount.Add(sale.Amount)

		rep, ok := byRep[sale.RepresentativeID]
		if !ok {
			rep = &RepresentativeSummary{RepresentativeID: sale.RepresentativeID, TotalAmount: decimal.Zero}
			byRep[sale.RepresentativeID] = rep
		}
		rep.Quantity++
		rep.TotalAmount = rep.TotalAmount.Add(sale.Amount)
	}
	if summary.Quantity > 0 {
		summary.AverageAmount = summary.TotalAmount.Div(decimal.NewFromInt(int64(summary.Quantity))).Round(2)
	}

	for _, rep := range byRep {
		summary.Representatives = append(summary.Representatives, *rep)
	}
	sort.Slice(summary.Representatives, func(i, j int) bool {
		return summary.Representatives[i].RepresentativeID < summary.Representatives[j].RepresentativeID
	})
	return summary, nil
}

func (s *Service) read(ctx context.Context, op string, id int64) (*Sale, error) {
	sale, err := s.storage.Read(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.persistenceError(op, err, zap.Int64("sale_id", id))
	}
	return sale, nil
}
