package sales

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStorage stores sales through GORM. It is used with the SQLite driver.
type GormStorage struct {
	db *gorm.DB
}

var _ Storage = (*GormStorage)(nil)

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (g *GormStorage) Create(ctx context.Context, sale *Sale) error {
	return g.db.WithContext(ctx).Create(sale).Error
}

func (g *GormStorage) Read(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	if err := g.db.WithContext(ctx).First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (g *GormStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	return g.Find(ctx, Filter{})
}

func (g *GormStorage) Update(ctx context.Context, sale *Sale) error {
	if sale.ID == 0 {
		return ErrMissingID
	}
	res := g.db.WithContext(ctx).Model(&Sale{}).Where("id = ?", sale.ID).Updates(map[string]any{
		"amount":            sale.Amount,
		"representative_id": sale.RepresentativeID,
		"updated_on":        sale.UpdatedOn,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStorage) Delete(ctx context.Context, id int64) error {
	res := g.db.WithContext(ctx).Delete(&Sale{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormStorage) Find(ctx context.Context, filter Filter) ([]*Sale, error) {
	q := g.db.WithContext(ctx).Model(&Sale{})
	if filter.hasDateRange() {
		q = q.Where("sale_date >= ? AND sale_date <= ?", filter.StartDate.UTC(), filter.EndDate.UTC())
	}
	if filter.hasRepresentative() {
		q = q.Where("representative_id = ?", filter.RepresentativeID)
	}

	sales := make([]*Sale, 0)
	if err := q.Order("id").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
