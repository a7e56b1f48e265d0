package shelving

type ListShelvesQuery struct {
	Limit      int  `query:"limit" json:"limit,omitempty" default:"25" validate:"min=1,max=100"`
	Offset     int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	BookcaseID *int `query:"bookcase_id" json:"bookcase_id,omitempty" validate:"omitempty,min=1" tstype:"number"`
}
