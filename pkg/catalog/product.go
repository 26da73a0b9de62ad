package catalog

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a sellable item as returned by the catalog API.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	RetailPrice decimal.Decimal `json:"retail_price"`
	// Cost is decoded when present but never rendered.
	Cost decimal.Decimal `json:"cost"`

	Brand    string `json:"brand"`
	Category string `json:"category"`

	DepartmentName string `json:"department_name"`
	DepartmentID   int64  `json:"department_id,omitempty"`

	SKU                  string `json:"sku"`
	DistributionCenterID int64  `json:"distribution_center_id,omitempty"`
}

// UnmarshalJSON accepts the department name under either "department_name"
// or the older "department" key. Both shapes are served by the API.
func (p *Product) UnmarshalJSON(data []byte) error {
	type productFields Product
	var raw struct {
		productFields
		Department *string `json:"department"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product(raw.productFields)
	if p.DepartmentName == "" && raw.Department != nil {
		p.DepartmentName = *raw.Department
	}
	return nil
}

// DisplayDescription is the description, or a placeholder when the API sent none.
func (p Product) DisplayDescription() string {
	if p.Description == "" {
		return "No description available."
	}
	return p.Description
}

// DisplayPrice formats the retail price with two decimals.
func (p Product) DisplayPrice() string {
	return p.RetailPrice.StringFixed(2)
}
