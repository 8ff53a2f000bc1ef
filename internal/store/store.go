package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite declaration index for candyc.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS resources (
  id              INTEGER PRIMARY KEY,
  package         TEXT NOT NULL,
  path            TEXT NOT NULL,
  hash            TEXT,
  last_indexed    TIMESTAMP,
  UNIQUE (package, path)
);

CREATE TABLE IF NOT EXISTS declarations (
  id              INTEGER PRIMARY KEY,
  resource_id     INTEGER NOT NULL REFERENCES resources(id) ON DELETE CASCADE,
  key             TEXT NOT NULL UNIQUE,
  package         TEXT NOT NULL,
  kind            TEXT NOT NULL,
  name            TEXT,
  parent_key      TEXT,
  origin          TEXT NOT NULL,
  modifiers       TEXT,
  signature_hash  TEXT,
  start_line      INTEGER,
  start_col       INTEGER
);

CREATE TABLE IF NOT EXISTS impls (
  id              INTEGER PRIMARY KEY,
  declaration_id  INTEGER NOT NULL REFERENCES declarations(id) ON DELETE CASCADE,
  package         TEXT NOT NULL,
  type_key        TEXT NOT NULL,
  type_decl_key   TEXT,
  trait_key       TEXT,
  trait_decl_key  TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_declarations_package ON declarations(package);
CREATE INDEX IF NOT EXISTS idx_declarations_kind ON declarations(kind);
CREATE INDEX IF NOT EXISTS idx_declarations_parent ON declarations(parent_key);
CREATE INDEX IF NOT EXISTS idx_impls_type_decl ON impls(type_decl_key);
CREATE INDEX IF NOT EXISTS idx_impls_trait_decl ON impls(trait_decl_key);
CREATE INDEX IF NOT EXISTS idx_impls_package ON impls(package);
`

// ReplacePackage swaps every row of pkg for the contents of snap within a
// single transaction. Readers see either the old package or the new one.
func (s *Store) ReplacePackage(snap *PackageSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("replace package %s: begin: %w", snap.Package, err)
	}
	defer tx.Rollback()

	if err := deletePackageTx(tx, snap.Package); err != nil {
		return fmt.Errorf("replace package %s: %w", snap.Package, err)
	}
	for i := range snap.Resources {
		r := &snap.Resources[i]
		r.Resource.Package = snap.Package
		resourceID, err := insertResourceTx(tx, &r.Resource)
		if err != nil {
			return fmt.Errorf("replace package %s: resource %q: %w", snap.Package, r.Resource.Path, err)
		}

		declIDs := make(map[string]int64, len(r.Declarations))
		for j := range r.Declarations {
			d := &r.Declarations[j]
			d.ResourceID = resourceID
			d.Package = snap.Package
			id, err := insertDeclarationTx(tx, d)
			if err != nil {
				return fmt.Errorf("replace package %s: declaration %q: %w", snap.Package, d.Key, err)
			}
			declIDs[d.Key] = id
		}
		for j := range r.Impls {
			impl := &r.Impls[j]
			declID, ok := declIDs[impl.DeclarationKey]
			if !ok {
				return fmt.Errorf("replace package %s: impl %q has no declaration row", snap.Package, impl.DeclarationKey)
			}
			impl.Package = snap.Package
			if _, err := insertImplTx(tx, declID, impl); err != nil {
				return fmt.Errorf("replace package %s: impl %q: %w", snap.Package, impl.DeclarationKey, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace package %s: commit: %w", snap.Package, err)
	}
	return nil
}

// DeletePackage removes every row belonging to pkg.
func (s *Store) DeletePackage(pkg string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete package %s: begin: %w", pkg, err)
	}
	defer tx.Rollback()
	if err := deletePackageTx(tx, pkg); err != nil {
		return fmt.Errorf("delete package %s: %w", pkg, err)
	}
	return tx.Commit()
}

// deletePackageTx deletes child tables first so the statement order does
// not depend on cascading deletes.
func deletePackageTx(tx *sql.Tx, pkg string) error {
	for _, stmt := range []string{
		"DELETE FROM impls WHERE package = ?",
		"DELETE FROM declarations WHERE package = ?",
		"DELETE FROM resources WHERE package = ?",
	} {
		if _, err := tx.Exec(stmt, pkg); err != nil {
			return err
		}
	}
	return nil
}

func insertResourceTx(tx *sql.Tx, r *Resource) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO resources (package, path, hash, last_indexed) VALUES (?, ?, ?, ?)",
		r.Package, r.Path, r.Hash, r.LastIndexed,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

func insertDeclarationTx(tx *sql.Tx, d *Declaration) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO declarations (resource_id, key, package, kind, name, parent_key, origin,
			modifiers, signature_hash, start_line, start_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ResourceID, d.Key, d.Package, d.Kind, d.Name, d.ParentKey, d.Origin,
		marshalModifiers(d.Modifiers), d.SignatureHash, d.StartLine, d.StartCol,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	d.ID = id
	return id, nil
}

func insertImplTx(tx *sql.Tx, declID int64, impl *Impl) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO impls (declaration_id, package, type_key, type_decl_key, trait_key, trait_decl_key)
		VALUES (?, ?, ?, ?, ?, ?)`,
		declID, impl.Package, impl.TypeKey, impl.TypeDeclarationKey, impl.TraitKey, impl.TraitDeclarationKey,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	impl.ID = id
	return id, nil
}
