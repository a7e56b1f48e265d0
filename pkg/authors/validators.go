package authors

type ResolveAuthorPayload struct {
	ExternalID *string            `json:"external_id,omitempty" validate:"omitempty,max=100"`
	SelectedID *int               `json:"selected_id,omitempty" validate:"omitempty,min=1" tstype:"number"`
	Candidates []CandidatePayload `json:"candidates,omitempty" validate:"omitempty,dive"`
}

type CandidatePayload struct {
	Name string `json:"name" validate:"required,max=300"`
	Role string `json:"role,omitempty" default:"author" validate:"oneof=author editor"`
}

type ListAuthorsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"25" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}
