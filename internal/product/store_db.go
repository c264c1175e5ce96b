package product

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"

	countConstraint = "products_count_check"
	nameConstraint  = "products_name_check"

	productColumns = `id, name, category, price, description, color, count`
)

// columns maps query fields onto their SQL expression. count is compared as
// text to keep FindBy a string match on every backend.
var columns = map[Field]string{
	FieldName:        "name",
	FieldCategory:    "category",
	FieldPrice:       "price",
	FieldDescription: "description",
	FieldColor:       "color",
	FieldCount:       "count::text",
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, p Product) (Product, error) {
	if !validCount(p.Count) {
		return Product{}, ErrInvalidCount
	}

	var out Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			INSERT INTO products (name, category, price, description, color, count)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+productColumns,
			p.Name, p.Category, p.Price, p.Description, p.Color, p.Count)
		return scanProduct(row, &out)
	})
	if err != nil {
		return Product{}, mapError(err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Product, bool, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
		return scanProduct(row, &p)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) Update(ctx context.Context, p Product) (Product, error) {
	if !validCount(p.Count) {
		return Product{}, ErrInvalidCount
	}

	var out Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			UPDATE products
			SET name = $1, category = $2, price = $3, description = $4, color = $5, count = $6
			WHERE id = $7
			RETURNING `+productColumns,
			p.Name, p.Category, p.Price, p.Description, p.Color, p.Count, p.ID)
		return scanProduct(row, &out)
	})
	if err != nil {
		return Product{}, mapError(err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
}

func (s *PostgresStore) FindBy(ctx context.Context, f Field, value string) ([]Product, error) {
	col, ok := columns[f]
	if !ok {
		return nil, ErrInvalidField
	}
	return s.query(ctx, `SELECT `+productColumns+` FROM products WHERE `+col+` = $1 ORDER BY id ASC`, value)
}

func (s *PostgresStore) ListAvailable(ctx context.Context) ([]Product, error) {
	return s.query(ctx, `SELECT `+productColumns+` FROM products WHERE count > 0 ORDER BY id ASC`)
}

func (s *PostgresStore) AddUnit(ctx context.Context, id int) (Product, error) {
	return s.adjust(ctx, `UPDATE products SET count = count + 1 WHERE id = $1 RETURNING `+productColumns, id)
}

func (s *PostgresStore) SellUnit(ctx context.Context, id int) (Product, error) {
	return s.adjust(ctx, `UPDATE products SET count = GREATEST(count - 1, 0) WHERE id = $1 RETURNING `+productColumns, id)
}

// RemoveAll also restarts the id sequence, matching the memory store.
func (s *PostgresStore) RemoveAll(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `TRUNCATE products RESTART IDENTITY`)
		return err
	})
}

func (s *PostgresStore) adjust(ctx context.Context, query string, id int) (Product, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return scanProduct(s.db.QueryRowContext(ctx, query, id), &p)
	})
	if err != nil {
		return Product{}, mapError(err)
	}
	return p, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			var p Product
			if err := scanProduct(rows, &p); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Description, &p.Color, &p.Count)
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgNumericOutOfRange:
		return ErrInvalidCount
	case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == countConstraint:
		return ErrInvalidCount
	case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == nameConstraint:
		return ErrInvalidName
	}
	return err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
