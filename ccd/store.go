package ccd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Store keeps the dictionary in an sqlite file, so one does not have to
// parse the whole components.cif every time.
type Store struct {
	db  *sql.DB
	cur *Component
}

// openDatabase opens the file with the settings we want.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return db, nil
}

// OpenStore opens or creates a store. ":memory:" works for tests.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close the database
func (s *Store) Close() error { return s.db.Close() }

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Load puts components in the store in one transaction. An existing
// component with the same id is replaced.
func (s *Store) Load(ctx context.Context, comps []Component) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for i := range comps {
		if err = putComponent(ctx, tx, &comps[i]); err != nil {
			return fmt.Errorf("loading %s: %w", comps[i].ID, err)
		}
	}
	return tx.Commit()
}

func putComponent(ctx context.Context, q querier, c *Component) error {
	id := strings.ToUpper(c.ID)
	if _, err := q.ExecContext(ctx, "DELETE FROM components WHERE id = ?", id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, "INSERT INTO components (id, status) VALUES (?, ?)", id, c.Status); err != nil {
		return err
	}
	for i, a := range c.Atoms {
		leaving := 0
		if a.Leaving {
			leaving = 1
		}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO atoms (comp_id, ord, name, element, leaving) VALUES (?, ?, ?, ?, ?)",
			id, i, a.Name, a.Element, leaving); err != nil {
			return err
		}
	}
	for i, b := range c.Bonds {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO bonds (comp_id, ord, atom1, atom2, bond_order) VALUES (?, ?, ?, ?, ?)",
			id, i, b.Atom1, b.Atom2, b.Order); err != nil {
			return err
		}
	}
	return nil
}

// Get reads one component. A missing one gives ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Component, error) {
	return getComponent(ctx, s.db, strings.ToUpper(id))
}

func getComponent(ctx context.Context, q querier, id string) (*Component, error) {
	c := &Component{ID: id}
	err := q.QueryRowContext(ctx, "SELECT status FROM components WHERE id = ?", id).Scan(&c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		"SELECT name, element, leaving FROM atoms WHERE comp_id = ? ORDER BY ord", id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var a Atom
		var leaving int
		if err := rows.Scan(&a.Name, &a.Element, &leaving); err != nil {
			rows.Close()
			return nil, err
		}
		a.Leaving = leaving != 0
		c.Atoms = append(c.Atoms, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows, err = q.QueryContext(ctx,
		"SELECT atom1, atom2, bond_order FROM bonds WHERE comp_id = ? ORDER BY ord", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b Bond
		if err := rows.Scan(&b.Atom1, &b.Atom2, &b.Order); err != nil {
			return nil, err
		}
		c.Bonds = append(c.Bonds, b)
	}
	return c, rows.Err()
}

// Count says how many components are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM components").Scan(&n)
	return n, err
}

// Select implements Accessor. Not found is false without an error.
func (s *Store) Select(id string) (bool, error) {
	s.cur = nil
	c, err := s.Get(context.Background(), id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.cur = c
	return true, nil
}

// Atoms of the selected component
func (s *Store) Atoms() []Atom {
	if s.cur == nil {
		return nil
	}
	return s.cur.Atoms
}

// Bonds of the selected component
func (s *Store) Bonds() []Bond {
	if s.cur == nil {
		return nil
	}
	return s.cur.Bonds
}

// Status of the selected component
func (s *Store) Status() string {
	if s.cur == nil {
		return ""
	}
	return s.cur.Status
}
