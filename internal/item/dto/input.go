package dto

type CreateItemInput struct {
	OrganizationID string
	Name           string
	SKU            string // blank means auto-generate
	Barcode        string
	CategoryID     string
	CategoryName   string // prefix context for auto-generated SKUs
	Description    string
	Unit           string
	CurrentStock   float64
	CreatedBy      string
}

type UpdateItemInput struct {
	ID             string
	OrganizationID string
	Name           string
	SKU            string
	Barcode        string
	CategoryID     string
	Description    string
	Unit           string
}
