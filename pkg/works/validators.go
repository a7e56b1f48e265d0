package works

// AttributionPayload names one person attached to a work, by external
// identifier, by name, by a previously resolved author id, or any
// combination.
type AttributionPayload struct {
	ExternalID *string `json:"external_id,omitempty" validate:"omitempty,max=100"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=300"`
	SelectedID *int    `json:"selected_id,omitempty" validate:"omitempty,min=1" tstype:"number"`
}

type ResolveWorkPayload struct {
	ExternalID *string              `json:"external_id,omitempty" validate:"omitempty,max=100"`
	Title      string               `json:"title" validate:"required,max=500"`
	Type       string               `json:"type" validate:"required,oneof=novel poem journalism short_story collection"`
	Authors    []AttributionPayload `json:"authors,omitempty" validate:"omitempty,dive"`
	Editors    []AttributionPayload `json:"editors,omitempty" validate:"omitempty,dive"`
}

type AssembleSetPayload struct {
	EntryType     string               `json:"entry_type" validate:"required,oneof=complete single partial"`
	ExternalID    *string              `json:"external_id,omitempty" validate:"omitempty,max=100"`
	Title         string               `json:"title" validate:"required,max=500"`
	Type          string               `json:"type" validate:"required,oneof=novel poem journalism short_story collection"`
	VolumeCount   *int                 `json:"volume_count,omitempty" validate:"omitempty,min=1" tstype:"number"`
	VolumeNumber  *int                 `json:"volume_number,omitempty" validate:"omitempty,min=1" tstype:"number"`
	VolumeNumbers []int                `json:"volume_numbers,omitempty" validate:"omitempty,dive,min=1"`
	Authors       []AttributionPayload `json:"authors,omitempty" validate:"omitempty,dive"`
	Editors       []AttributionPayload `json:"editors,omitempty" validate:"omitempty,dive"`
}

type AssembleAnthologyPayload struct {
	Title            string               `json:"title" validate:"required,max=500"`
	ComponentWorkIDs []int                `json:"component_work_ids" validate:"required,min=2,dive,min=1"`
	Editors          []AttributionPayload `json:"editors,omitempty" validate:"omitempty,dive"`
}

type SearchWorksQuery struct {
	Title  string  `query:"title" json:"title" validate:"required,max=500"`
	Author *string `query:"author" json:"author,omitempty" validate:"omitempty,max=300"`
}

type ListWorksQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"25" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}
