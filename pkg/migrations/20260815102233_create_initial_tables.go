package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				external_id TEXT,
				primary_name TEXT NOT NULL,
				search_name TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Insert-or-get on creation races depends on this being unique.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_authors_external_id ON authors (external_id) WHERE external_id IS NOT NULL`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_authors_search_name ON authors (search_name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE author_aliases (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id INTEGER REFERENCES authors (id) NOT NULL,
				name TEXT NOT NULL,
				sort_order INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_author_aliases_author_id_name ON author_aliases (author_id, name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Inverted index over alternate names so name matching doesn't scan
		// the whole authors table.
		_, err = db.Exec(`CREATE INDEX ix_author_aliases_name ON author_aliases (name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE author_external_ids (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id INTEGER REFERENCES authors (id) NOT NULL,
				external_id TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_author_external_ids_external_id ON author_external_ids (external_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE works (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				search_name TEXT NOT NULL,
				external_id TEXT,
				work_type TEXT NOT NULL,
				is_multivolume BOOLEAN NOT NULL DEFAULT FALSE,
				volume_number INTEGER
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_works_external_id ON works (external_id) WHERE external_id IS NOT NULL`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_works_search_name ON works (search_name COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE work_authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				work_id INTEGER REFERENCES works (id) NOT NULL,
				author_id INTEGER REFERENCES authors (id) NOT NULL,
				sort_order INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_work_authors_work_id_author_id ON work_authors (work_id, author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE work_editors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				work_id INTEGER REFERENCES works (id) NOT NULL,
				author_id INTEGER REFERENCES authors (id) NOT NULL,
				sort_order INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_work_editors_work_id_author_id ON work_editors (work_id, author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE work_components (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				parent_work_id INTEGER REFERENCES works (id) NOT NULL,
				component_work_id INTEGER REFERENCES works (id) NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_work_components_parent_component ON work_components (parent_work_id, component_work_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE editions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				work_id INTEGER REFERENCES works (id) NOT NULL,
				publisher TEXT NOT NULL,
				format TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_editions_work_id ON editions (work_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE copies (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				edition_id INTEGER REFERENCES editions (id) NOT NULL,
				condition TEXT NOT NULL,
				location_id INTEGER REFERENCES locations (id),
				room_id INTEGER REFERENCES rooms (id),
				bookcase_id INTEGER REFERENCES bookcases (id),
				shelf_id INTEGER REFERENCES shelves (id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_copies_edition_id ON copies (edition_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE locations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE rooms (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				location_id INTEGER REFERENCES locations (id) NOT NULL,
				name TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_rooms_location_id ON rooms (location_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE bookcases (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				room_id INTEGER REFERENCES rooms (id) NOT NULL,
				name TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_bookcases_room_id ON bookcases (room_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE shelves (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				bookcase_id INTEGER REFERENCES bookcases (id) NOT NULL,
				label TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_shelves_bookcase_id ON shelves (bookcase_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE source_cache_entries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				signature TEXT NOT NULL,
				payload BLOB NOT NULL,
				last_updated TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				ttl_hours INTEGER NOT NULL DEFAULT 24
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		// Atomic per-signature upserts depend on this being unique.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_source_cache_entries_signature ON source_cache_entries (signature)`)
		return errors.WithStack(err)
	}
	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"source_cache_entries",
			"copies",
			"editions",
			"shelves",
			"bookcases",
			"rooms",
			"locations",
			"work_components",
			"work_editors",
			"work_authors",
			"works",
			"author_external_ids",
			"author_aliases",
			"authors",
		}
		for _, table := range tables {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
