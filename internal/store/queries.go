package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// DeclarationCols is the column list for declaration queries.
const DeclarationCols = `id, resource_id, key, package, kind, name, parent_key, origin,
	modifiers, signature_hash, start_line, start_col`

func (s *Store) scanDeclaration(scanner interface{ Scan(...any) error }) (*Declaration, error) {
	d := &Declaration{}
	var name, mods, hash sql.NullString
	err := scanner.Scan(
		&d.ID, &d.ResourceID, &d.Key, &d.Package, &d.Kind, &name, &d.ParentKey, &d.Origin,
		&mods, &hash, &d.StartLine, &d.StartCol,
	)
	if err != nil {
		return nil, err
	}
	d.Name = name.String
	d.Modifiers = unmarshalModifiers(mods.String)
	d.SignatureHash = hash.String
	return d, nil
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d, err := s.scanDeclaration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

// DeclarationByKey returns the declaration with the given key, or nil.
func (s *Store) DeclarationByKey(key string) (*Declaration, error) {
	row := s.db.QueryRow("SELECT "+DeclarationCols+" FROM declarations WHERE key = ?", key)
	d, err := s.scanDeclaration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeclarationsByKind returns every declaration of the kind, ordered by key.
func (s *Store) DeclarationsByKind(kind string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE kind = ? ORDER BY key", kind)
}

// DeclarationsByPackage returns every declaration of pkg, ordered by key.
func (s *Store) DeclarationsByPackage(pkg string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE package = ? ORDER BY key", pkg)
}

// DeclarationChildren returns the declarations whose parent is parentKey,
// in insertion order.
func (s *Store) DeclarationChildren(parentKey string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE parent_key = ? ORDER BY id", parentKey)
}

// ResourceByPath returns the resource row of pkg at path, or nil.
func (s *Store) ResourceByPath(pkg, path string) (*Resource, error) {
	r := &Resource{}
	var hash sql.NullString
	var indexed sql.NullTime
	err := s.db.QueryRow(
		"SELECT id, package, path, hash, last_indexed FROM resources WHERE package = ? AND path = ?",
		pkg, path,
	).Scan(&r.ID, &r.Package, &r.Path, &hash, &indexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Hash = hash.String
	r.LastIndexed = indexed.Time
	return r, nil
}

const implCols = `i.id, d.key, i.package, i.type_key, i.type_decl_key, i.trait_key, i.trait_decl_key`

func (s *Store) queryImpls(query string, args ...any) ([]*Impl, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var impls []*Impl
	for rows.Next() {
		impl := &Impl{}
		if err := rows.Scan(&impl.ID, &impl.DeclarationKey, &impl.Package, &impl.TypeKey,
			&impl.TypeDeclarationKey, &impl.TraitKey, &impl.TraitDeclarationKey); err != nil {
			return nil, fmt.Errorf("scan impl: %w", err)
		}
		impls = append(impls, impl)
	}
	return impls, rows.Err()
}

// ImplsForTarget returns the impls whose implementing type or trait is the
// declaration targetKey, in insertion order.
func (s *Store) ImplsForTarget(targetKey string) ([]*Impl, error) {
	return s.queryImpls(
		"SELECT "+implCols+` FROM impls i JOIN declarations d ON d.id = i.declaration_id
		WHERE i.type_decl_key = ? OR i.trait_decl_key = ? ORDER BY i.id`,
		targetKey, targetKey,
	)
}

// ImplsForTypeKey returns the impls whose implementing type has exactly the
// given structural key.
func (s *Store) ImplsForTypeKey(typeKey string) ([]*Impl, error) {
	return s.queryImpls(
		"SELECT "+implCols+` FROM impls i JOIN declarations d ON d.id = i.declaration_id
		WHERE i.type_key = ? ORDER BY i.id`,
		typeKey,
	)
}

// SignatureHashes maps every declaration key of pkg to its signature hash.
func (s *Store) SignatureHashes(pkg string) (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, signature_hash FROM declarations WHERE package = ?", pkg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hashes := make(map[string]string)
	for rows.Next() {
		var key string
		var hash sql.NullString
		if err := rows.Scan(&key, &hash); err != nil {
			return nil, fmt.Errorf("scan signature hash: %w", err)
		}
		hashes[key] = hash.String
	}
	return hashes, rows.Err()
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// Metadata returns the value stored under key.
func (s *Store) Metadata(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
