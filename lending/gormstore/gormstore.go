// Package gormstore implements lending.Store on top of gorm, so the lending
// data can live in PostgreSQL, MySQL or SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stuff-lending/lending"
)

type memberRow struct {
	ID         string `gorm:"primaryKey;size:16"`
	Position   int    `gorm:"not null;index"`
	Name       string `gorm:"not null"`
	Email      string `gorm:"not null"`
	Phone      string `gorm:"not null"`
	Credit     int64  `gorm:"not null"`
	CreatedDay int    `gorm:"not null"`
	ItemIDs    string `gorm:"not null;default:''"`
	PinHash    string `gorm:"not null;default:''"`
}

func (memberRow) TableName() string { return "lending_members" }

type itemRow struct {
	ID          string `gorm:"primaryKey;size:16"`
	Position    int    `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Category    string `gorm:"size:16;not null"`
	Description string `gorm:"not null"`
	CostPerDay  int64  `gorm:"not null"`
	CreatedDay  int    `gorm:"not null"`
	OwnerID     string `gorm:"size:16;not null;index"`
}

func (itemRow) TableName() string { return "lending_items" }

type contractRow struct {
	ID         string `gorm:"primaryKey;size:16"`
	Position   int    `gorm:"not null;index"`
	BorrowerID string `gorm:"size:16;not null"`
	ItemID     string `gorm:"size:16;not null;index"`
	StartDay   int    `gorm:"not null"`
	EndDay     int    `gorm:"not null"`
	Valid      bool   `gorm:"not null"`
	TotalCost  int64  `gorm:"not null"`
}

func (contractRow) TableName() string { return "lending_contracts" }

type metaRow struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"not null"`
}

func (metaRow) TableName() string { return "lending_meta" }

// Store is a lending.Store over a gorm connection.
type Store struct {
	db *gorm.DB
}

// Open connects with the named driver (sqlite, postgres or mysql) and
// migrates the lending tables.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "sqlite", "gorm-sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return New(db)
}

// New migrates the lending tables on an existing connection.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&memberRow{}, &itemRow{}, &contractRow{}, &metaRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomically runs fn inside one gorm transaction.
func (s *Store) Atomically(ctx context.Context, fn func(tx lending.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// replaceAll deletes every row of model and inserts rows in one transaction.
func replaceAll[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var zero T
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&zero).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
}

func (s *Store) LoadMembers(ctx context.Context) ([]lending.Member, error) {
	var rows []memberRow
	if err := s.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	members := make([]lending.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, lending.Member{
			ID:         r.ID,
			Name:       r.Name,
			Email:      r.Email,
			Phone:      r.Phone,
			Credit:     lending.Credits(r.Credit),
			CreatedDay: r.CreatedDay,
			ItemIDs:    splitIDs(r.ItemIDs),
			PinHash:    r.PinHash,
		})
	}
	return members, nil
}

func (s *Store) SaveMembers(ctx context.Context, members []lending.Member) error {
	rows := make([]memberRow, 0, len(members))
	for i, m := range members {
		rows = append(rows, memberRow{
			ID:         m.ID,
			Position:   i,
			Name:       m.Name,
			Email:      m.Email,
			Phone:      m.Phone,
			Credit:     int64(m.Credit),
			CreatedDay: m.CreatedDay,
			ItemIDs:    strings.Join(m.ItemIDs, ","),
			PinHash:    m.PinHash,
		})
	}
	return replaceAll(ctx, s.db, rows)
}

func (s *Store) LoadItems(ctx context.Context) ([]lending.Item, error) {
	var rows []itemRow
	if err := s.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]lending.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, lending.Item{
			ID:          r.ID,
			Name:        r.Name,
			Category:    lending.Category(r.Category),
			Description: r.Description,
			CostPerDay:  lending.Credits(r.CostPerDay),
			CreatedDay:  r.CreatedDay,
			OwnerID:     r.OwnerID,
		})
	}
	return items, nil
}

func (s *Store) SaveItems(ctx context.Context, items []lending.Item) error {
	rows := make([]itemRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, itemRow{
			ID:          it.ID,
			Position:    i,
			Name:        it.Name,
			Category:    string(it.Category),
			Description: it.Description,
			CostPerDay:  int64(it.CostPerDay),
			CreatedDay:  it.CreatedDay,
			OwnerID:     it.OwnerID,
		})
	}
	return replaceAll(ctx, s.db, rows)
}

func (s *Store) LoadContracts(ctx context.Context) ([]lending.Contract, error) {
	var rows []contractRow
	if err := s.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, err
	}
	contracts := make([]lending.Contract, 0, len(rows))
	for _, r := range rows {
		contracts = append(contracts, lending.Contract{
			ID:         r.ID,
			BorrowerID: r.BorrowerID,
			ItemID:     r.ItemID,
			StartDay:   r.StartDay,
			EndDay:     r.EndDay,
			Valid:      r.Valid,
			TotalCost:  lending.Credits(r.TotalCost),
		})
	}
	return contracts, nil
}

func (s *Store) SaveContracts(ctx context.Context, contracts []lending.Contract) error {
	rows := make([]contractRow, 0, len(contracts))
	for i, c := range contracts {
		rows = append(rows, contractRow{
			ID:         c.ID,
			Position:   i,
			BorrowerID: c.BorrowerID,
			ItemID:     c.ItemID,
			StartDay:   c.StartDay,
			EndDay:     c.EndDay,
			Valid:      c.Valid,
			TotalCost:  int64(c.TotalCost),
		})
	}
	return replaceAll(ctx, s.db, rows)
}

func (s *Store) LoadDay(ctx context.Context) (int, bool, error) {
	var row metaRow
	err := s.db.WithContext(ctx).Where(&metaRow{Key: "current_day"}).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	day, err := strconv.Atoi(row.Value)
	if err != nil {
		return 0, false, fmt.Errorf("current_day %q: %w", row.Value, err)
	}
	return day, true, nil
}

func (s *Store) SaveDay(ctx context.Context, day int) error {
	return s.db.WithContext(ctx).Save(&metaRow{Key: "current_day", Value: strconv.Itoa(day)}).Error
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
