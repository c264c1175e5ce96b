package product

import (
	"context"
	"errors"
	"math"
	"strconv"
)

// MaxCount is the largest stock level a product can hold; it matches the
// INTEGER column of the products table.
const MaxCount = math.MaxInt32

var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidField = errors.New("unknown product field")
	ErrInvalidCount = errors.New("count must be between 0 and 2147483647")
	ErrInvalidName  = errors.New("name is required")
)

type Product struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Count       int    `json:"count"`
}

// Available reports whether at least one unit is in stock.
func (p Product) Available() bool { return p.Count > 0 }

func validCount(n int) bool { return n >= 0 && n <= MaxCount }

// Field names a queryable product attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldCategory    Field = "category"
	FieldPrice       Field = "price"
	FieldDescription Field = "description"
	FieldColor       Field = "color"
	FieldCount       Field = "count"
)

// QueryFields lists the filterable fields in precedence order.
var QueryFields = []Field{FieldName, FieldCategory, FieldPrice, FieldDescription, FieldColor, FieldCount}

func ParseField(s string) (Field, error) {
	for _, f := range QueryFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrInvalidField
}

// Value renders the field of p as text; count uses its decimal form.
func (f Field) Value(p Product) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldCategory:
		return p.Category
	case FieldPrice:
		return p.Price
	case FieldDescription:
		return p.Description
	case FieldColor:
		return p.Color
	case FieldCount:
		return strconv.Itoa(p.Count)
	}
	return ""
}

// Store is the product collection. Update, AddUnit and SellUnit return
// ErrNotFound for unknown ids; Delete never does. Create and Update reject a
// count outside [0, MaxCount] with ErrInvalidCount, and AddUnit refuses to
// step past MaxCount.
type Store interface {
	Ping(ctx context.Context) error

	Create(ctx context.Context, p Product) (Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int) error

	List(ctx context.Context) ([]Product, error)
	FindBy(ctx context.Context, f Field, value string) ([]Product, error)
	ListAvailable(ctx context.Context) ([]Product, error)

	AddUnit(ctx context.Context, id int) (Product, error)
	SellUnit(ctx context.Context, id int) (Product, error)

	RemoveAll(ctx context.Context) error
}
