package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Edition is one acquisition of a work. Every confirmed catalog entry
// produces a new edition, even for a pre-existing work; publisher and
// format are immutable after creation.
type Edition struct {
	bun.BaseModel `bun:"table:editions,alias:e"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	WorkID    int       `bun:",nullzero" json:"work_id"`
	Work      *Work     `bun:"rel:belongs-to,join:work_id=id" json:"work,omitempty"`
	Publisher string    `bun:",notnull" json:"publisher"`
	Format    string    `bun:",notnull" json:"format"`
}

// Copy is one physical copy of an edition. The four shelving fields are set
// together from a resolved shelf chain or not at all; a partially shelved
// copy is never written.
type Copy struct {
	bun.BaseModel `bun:"table:copies,alias:c"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	EditionID  int       `bun:",nullzero" json:"edition_id"`
	Edition    *Edition  `bun:"rel:belongs-to,join:edition_id=id" json:"edition,omitempty"`
	Condition  string    `bun:",notnull" json:"condition"`
	LocationID *int      `json:"location_id"`
	RoomID     *int      `json:"room_id"`
	BookcaseID *int      `json:"bookcase_id"`
	ShelfID    *int      `json:"shelf_id"`
}

// IsShelved reports whether the copy has a complete shelving path.
func (c *Copy) IsShelved() bool {
	return c.LocationID != nil && c.RoomID != nil && c.BookcaseID != nil && c.ShelfID != nil
}
