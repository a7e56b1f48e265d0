package models

import (
	"time"

	"github.com/uptrace/bun"
)

// The physical location hierarchy is plain records: a location (building)
// contains rooms, a room contains bookcases, a bookcase contains shelves.

type Location struct {
	bun.BaseModel `bun:"table:locations,alias:loc"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `bun:",nullzero" json:"name"`
}

type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LocationID int       `bun:",nullzero" json:"location_id"`
	Location   *Location `bun:"rel:belongs-to,join:location_id=id" json:"location,omitempty"`
	Name       string    `bun:",nullzero" json:"name"`
}

type Bookcase struct {
	bun.BaseModel `bun:"table:bookcases,alias:bc"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	RoomID    int       `bun:",nullzero" json:"room_id"`
	Room      *Room     `bun:"rel:belongs-to,join:room_id=id" json:"room,omitempty"`
	Name      string    `bun:",nullzero" json:"name"`
}

type Shelf struct {
	bun.BaseModel `bun:"table:shelves,alias:sh"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	BookcaseID int       `bun:",nullzero" json:"bookcase_id"`
	Bookcase   *Bookcase `bun:"rel:belongs-to,join:bookcase_id=id" json:"bookcase,omitempty"`
	Label      string    `bun:",nullzero" json:"label"`
}
