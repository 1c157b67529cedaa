package dto

type StartCountInput struct {
	OrganizationID string
	ConductedBy    string
	TemplateID     *string
	Notes          *string
}

// ItemUpdate is one operator submission for one line, addressed by catalog
// item id (the shape dialogs and scan flows produce).
type ItemUpdate struct {
	ItemID         string  `json:"item_id"`
	ActualQuantity float64 `json:"actual_quantity"`
	Notes          *string `json:"notes"`
	CountedBy      *string `json:"counted_by"`
}
