package product

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type productReq struct {
	// ID is accepted so clients can send back a fetched record; the path id wins.
	ID          int    `json:"id"`
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Count       int    `json:"count" validate:"gte=0,lte=2147483647"`
}

func (req productReq) toProduct(id int) Product {
	return Product{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		Color:       req.Color,
		Count:       req.Count,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateProduct trims the name in place and returns field -> message for
// every violated rule, or nil.
func validateProduct(req *productReq) map[string]string {
	req.Name = strings.TrimSpace(req.Name)

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
