package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Author is a canonical local author record. There is at most one Author per
// external identifier, and SearchName never changes once set: it's the
// lowercased string the author was first searched by, so later searches by
// the familiar (pen) name keep matching even after enrichment rewrites
// PrimaryName.
type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`

	ID          int                 `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ExternalID  *string             `json:"external_id"`
	PrimaryName string              `bun:",nullzero" json:"primary_name"`
	SearchName  string              `bun:",nullzero" json:"search_name"`
	Aliases     []*AuthorAlias      `bun:"rel:has-many,join:id=author_id" json:"aliases,omitempty"`
	ExternalIDs []*AuthorExternalID `bun:"rel:has-many,join:id=author_id" json:"external_ids,omitempty"`
}

// HasAlias reports whether name matches the author's search name or any of
// its accumulated alternate names, case-insensitively.
func (a *Author) HasAlias(name string) bool {
	if strings.EqualFold(a.SearchName, name) {
		return true
	}
	for _, alias := range a.Aliases {
		if strings.EqualFold(alias.Name, name) {
			return true
		}
	}
	return false
}

// AliasNames returns the author's alternate names in insertion order.
func (a *Author) AliasNames() []string {
	names := make([]string, 0, len(a.Aliases))
	for _, alias := range a.Aliases {
		names = append(names, alias.Name)
	}
	return names
}

// AuthorAlias is one alternate name for an author. Aliases are append-only:
// enrichment adds names but never removes them.
type AuthorAlias struct {
	bun.BaseModel `bun:"table:author_aliases,alias:aa"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AuthorID  int       `bun:",nullzero" json:"author_id"`
	Name      string    `bun:",nullzero" json:"name"`
	SortOrder int       `bun:",nullzero" json:"sort_order"`
}

// AuthorExternalID records an alternate external identifier known to refer
// to the same person under a different external record.
type AuthorExternalID struct {
	bun.BaseModel `bun:"table:author_external_ids,alias:ae"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	AuthorID   int       `bun:",nullzero" json:"author_id"`
	ExternalID string    `bun:",nullzero" json:"external_id"`
}
