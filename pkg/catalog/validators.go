package catalog

type CreateCopyPayload struct {
	WorkID           int    `json:"work_id" validate:"required,min=1"`
	Publisher        string `json:"publisher,omitempty" validate:"omitempty,max=300"`
	Format           string `json:"format,omitempty" validate:"omitempty,oneof=hardcover paperback mass_market oversize"`
	Condition        string `json:"condition,omitempty" validate:"omitempty,max=100"`
	ShelfID          *int   `json:"shelf_id,omitempty" validate:"omitempty,min=1" tstype:"number"`
	ConfirmDuplicate bool   `json:"confirm_duplicate,omitempty"`
}

type ListCopiesQuery struct {
	Limit  int  `query:"limit" json:"limit,omitempty" default:"25" validate:"min=1,max=100"`
	Offset int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	WorkID *int `query:"work_id" json:"work_id,omitempty" validate:"omitempty,min=1" tstype:"number"`
}
