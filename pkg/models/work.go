package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	WorkTypeNovel      = "novel"
	WorkTypePoem       = "poem"
	WorkTypeJournalism = "journalism"
	WorkTypeShortStory = "short_story"
	WorkTypeCollection = "collection"
)

// WorkTypes lists every valid work type.
var WorkTypes = []string{
	WorkTypeNovel,
	WorkTypePoem,
	WorkTypeJournalism,
	WorkTypeShortStory,
	WorkTypeCollection,
}

// Work is a bibliographic work. A work with IsMultivolume=true and no
// VolumeNumber is a set parent and owns component volume works; a work with
// a VolumeNumber is a single volume. Components are also used for
// anthologies, where the contained works are independent (two novellas
// bound together), not sequential volumes.
type Work struct {
	bun.BaseModel `bun:"table:works,alias:w"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Title         string    `bun:",nullzero" json:"title"`
	SearchName    string    `bun:",nullzero" json:"search_name"`
	ExternalID    *string   `json:"external_id"`
	Type          string    `bun:"work_type,notnull" json:"type"`
	IsMultivolume bool      `bun:",notnull" json:"is_multivolume"`
	VolumeNumber  *int      `json:"volume_number"`

	Authors    []*WorkAuthor    `bun:"rel:has-many,join:id=work_id" json:"authors,omitempty"`
	Editors    []*WorkEditor    `bun:"rel:has-many,join:id=work_id" json:"editors,omitempty"`
	Components []*WorkComponent `bun:"rel:has-many,join:id=parent_work_id" json:"components,omitempty"`
}

// IsSetParent reports whether the work represents an entire multi-volume
// set rather than one of its volumes.
func (w *Work) IsSetParent() bool {
	return w.IsMultivolume && w.VolumeNumber == nil
}

// WorkAuthor links a work to one of its authors.
type WorkAuthor struct {
	bun.BaseModel `bun:"table:work_authors,alias:wa"`

	ID        int     `bun:",pk,nullzero" json:"id"`
	WorkID    int     `bun:",nullzero" json:"work_id"`
	AuthorID  int     `bun:",nullzero" json:"author_id"`
	Author    *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	SortOrder int     `bun:",nullzero" json:"sort_order"`
}

// WorkEditor links a work to one of its editors. The editor role is
// disjoint from the author role.
type WorkEditor struct {
	bun.BaseModel `bun:"table:work_editors,alias:we"`

	ID        int     `bun:",pk,nullzero" json:"id"`
	WorkID    int     `bun:",nullzero" json:"work_id"`
	AuthorID  int     `bun:",nullzero" json:"author_id"`
	Author    *Author `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	SortOrder int     `bun:",nullzero" json:"sort_order"`
}

// WorkComponent links a set parent or anthology to one contained work. The
// containment is non-symmetric: the component doesn't know its parents.
type WorkComponent struct {
	bun.BaseModel `bun:"table:work_components,alias:wc"`

	ID              int   `bun:",pk,nullzero" json:"id"`
	ParentWorkID    int   `bun:",nullzero" json:"parent_work_id"`
	ComponentWorkID int   `bun:",nullzero" json:"component_work_id"`
	Component       *Work `bun:"rel:belongs-to,join:component_work_id=id" json:"component,omitempty"`
}
