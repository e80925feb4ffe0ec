package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const saleColumns = `id, amount, sale_date, representative_id, created_on, updated_on`

// PostgresStorage stores sales in PostgreSQL through database/sql.
type PostgresStorage struct {
	db *sql.DB
}

var _ Storage = (*PostgresStorage)(nil)

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (p *PostgresStorage) Create(ctx context.Context, sale *Sale) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO sales (amount, sale_date, representative_id, created_on, updated_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, sale.Amount, sale.SaleDate, sale.RepresentativeID, sale.CreatedOn, sale.UpdatedOn).Scan(&sale.ID)
}

func (p *PostgresStorage) Read(ctx context.Context, id int64) (*Sale, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	sale, err := scanSale(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (p *PostgresStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	return p.Find(ctx, Filter{})
}

func (p *PostgresStorage) Update(ctx context.Context, sale *Sale) error {
	if sale.ID == 0 {
		return ErrMissingID
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE sales
		SET amount = $2, representative_id = $3, updated_on = $4
		WHERE id = $1
	`, sale.ID, sale.Amount, sale.RepresentativeID, sale.UpdatedOn)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStorage) Delete(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStorage) Find(ctx context.Context, filter Filter) ([]*Sale, error) {
	var (
		conds []string
		args  []any
	)
	if filter.hasDateRange() {
		args = append(args, filter.StartDate.UTC(), filter.EndDate.UTC())
		conds = append(conds, fmt.Sprintf("sale_date >= $%d AND sale_date <= $%d", len(args)-1, len(args)))
	}
	if filter.hasRepresentative() {
		args = append(args, filter.RepresentativeID)
		conds = append(conds, fmt.Sprintf("representative_id = $%d", len(args)))
	}

	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]*Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*Sale, error) {
	var s Sale
	if err := row.Scan(&s.ID, &s.Amount, &s.SaleDate, &s.RepresentativeID, &s.CreatedOn, &s.UpdatedOn); err != nil {
		return nil, err
	}
	return &s, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
