package lending

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database is a Store backed by a SQLite file.
type Database struct {
	db *sql.DB
	tx *sql.Tx // set on the copy handed to Atomically callbacks

	insertMemberStmt   *sql.Stmt
	insertItemStmt     *sql.Stmt
	insertContractStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares the insert statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, st := range []*sql.Stmt{d.insertMemberStmt, d.insertItemStmt, d.insertContractStmt} {
		if st != nil {
			st.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// position keeps the insertion order of each collection.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            credit INTEGER NOT NULL CHECK (credit >= 0),
            created_day INTEGER NOT NULL,
            item_ids TEXT NOT NULL DEFAULT '[]',
            pin_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            description TEXT NOT NULL,
            cost_per_day INTEGER NOT NULL CHECK (cost_per_day >= 0),
            created_day INTEGER NOT NULL,
            owner_id TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS contracts (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            borrower_id TEXT NOT NULL,
            item_id TEXT NOT NULL,
            start_day INTEGER NOT NULL,
            end_day INTEGER NOT NULL,
            valid BOOLEAN NOT NULL,
            total_cost INTEGER NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_contracts_item ON contracts(item_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertMemberStmt, err = d.db.Prepare(`INSERT INTO members(id,position,name,email,phone,credit,created_day,item_ids,pin_hash) VALUES(?,?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertItemStmt, err = d.db.Prepare(`INSERT INTO items(id,position,name,category,description,cost_per_day,created_day,owner_id) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertContractStmt, err = d.db.Prepare(`INSERT INTO contracts(id,position,borrower_id,item_id,start_day,end_day,valid,total_cost) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (d *Database) q() querier {
	if d.tx != nil {
		return d.tx
	}
	return d.db
}

// Atomically runs fn against a Database bound to one SQL transaction.
func (d *Database) Atomically(ctx context.Context, fn func(tx Store) error) error {
	if d.tx != nil {
		return fn(d)
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	bound := *d
	bound.tx = tx
	if err := fn(&bound); err != nil {
		return err
	}
	return tx.Commit()
}

// replace clears table and re-inserts rows with stmt inside one transaction.
func (d *Database) replace(ctx context.Context, table string, stmt *sql.Stmt, rows [][]any) error {
	return d.Atomically(ctx, func(s Store) error {
		tx := s.(*Database).tx
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		ins := tx.StmtContext(ctx, stmt)
		defer ins.Close()
		for _, args := range rows {
			if _, err := ins.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

func (d *Database) LoadMembers(ctx context.Context) ([]Member, error) {
	rows, err := d.q().QueryContext(ctx, `SELECT id,name,email,phone,credit,created_day,item_ids,pin_hash FROM members ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var itemIDs string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Credit, &m.CreatedDay, &itemIDs, &m.PinHash); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(itemIDs), &m.ItemIDs); err != nil {
			return nil, fmt.Errorf("member %s item_ids: %w", m.ID, err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (d *Database) SaveMembers(ctx context.Context, members []Member) error {
	rows := make([][]any, 0, len(members))
	for i, m := range members {
		ids := m.ItemIDs
		if ids == nil {
			ids = []string{}
		}
		itemIDs, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		rows = append(rows, []any{m.ID, i, m.Name, m.Email, m.Phone, m.Credit, m.CreatedDay, string(itemIDs), m.PinHash})
	}
	return d.replace(ctx, "members", d.insertMemberStmt, rows)
}

func (d *Database) LoadItems(ctx context.Context) ([]Item, error) {
	rows, err := d.q().QueryContext(ctx, `SELECT id,name,category,description,cost_per_day,created_day,owner_id FROM items ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Description, &it.CostPerDay, &it.CreatedDay, &it.OwnerID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (d *Database) SaveItems(ctx context.Context, items []Item) error {
	rows := make([][]any, 0, len(items))
	for i, it := range items {
		rows = append(rows, []any{it.ID, i, it.Name, string(it.Category), it.Description, it.CostPerDay, it.CreatedDay, it.OwnerID})
	}
	return d.replace(ctx, "items", d.insertItemStmt, rows)
}

func (d *Database) LoadContracts(ctx context.Context) ([]Contract, error) {
	rows, err := d.q().QueryContext(ctx, `SELECT id,borrower_id,item_id,start_day,end_day,valid,total_cost FROM contracts ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(&c.ID, &c.BorrowerID, &c.ItemID, &c.StartDay, &c.EndDay, &c.Valid, &c.TotalCost); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func (d *Database) SaveContracts(ctx context.Context, contracts []Contract) error {
	rows := make([][]any, 0, len(contracts))
	for i, c := range contracts {
		rows = append(rows, []any{c.ID, i, c.BorrowerID, c.ItemID, c.StartDay, c.EndDay, c.Valid, c.TotalCost})
	}
	return d.replace(ctx, "contracts", d.insertContractStmt, rows)
}

// ---------------------------------------------------------------------------
// Day
// ---------------------------------------------------------------------------

func (d *Database) LoadDay(ctx context.Context) (int, bool, error) {
	var v string
	err := d.q().QueryRowContext(ctx, `SELECT value FROM meta WHERE key='current_day'`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	day, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("current_day %q: %w", v, err)
	}
	return day, true, nil
}

func (d *Database) SaveDay(ctx context.Context, day int) error {
	_, err := d.q().ExecContext(ctx, `INSERT INTO meta(key,value) VALUES('current_day',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value`, strconv.Itoa(day))
	return err
}
