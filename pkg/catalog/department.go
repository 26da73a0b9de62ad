package catalog

import (
	"encoding/json"

	"github.com/Sternrassler/catalog-storefront/pkg/pagination"
)

// Department is a named grouping of products.
type Department struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count"`
}

// ProductPage is one page of the product collection.
type ProductPage struct {
	Products []Product
	Info     pagination.PageInfo
}

// DepartmentProducts is the combined department + product page response.
type DepartmentProducts struct {
	Department Department `json:"department"`
	Products   []Product  `json:"products"`

	Info pagination.PageInfo `json:"-"`
}

// decodeDepartments reads the department list response. The body must be
// valid JSON; a missing or malformed "departments" field yields an empty list.
func decodeDepartments(body []byte) ([]Department, error) {
	var envelope any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}

	obj, ok := envelope.(map[string]any)
	if !ok {
		return []Department{}, nil
	}
	field, ok := obj["departments"]
	if !ok || field == nil {
		return []Department{}, nil
	}

	raw, err := json.Marshal(field)
	if err != nil {
		return []Department{}, nil
	}
	var departments []Department
	if err := json.Unmarshal(raw, &departments); err != nil {
		return []Department{}, nil
	}
	if departments == nil {
		departments = []Department{}
	}
	return departments, nil
}
