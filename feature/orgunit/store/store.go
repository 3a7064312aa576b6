package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"orgunit-sync/core/database"
	"orgunit-sync/feature/orgunit/models"

	"gorm.io/gorm"
)

// Tx is an open store transaction. Commit and Rollback both release the
// underlying connection whatever their outcome.
type Tx interface {
	Commit() error
	Rollback() error
}

// gormTx adapts a gorm transaction handle to Tx.
type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Commit() error {
	return t.db.Commit().Error
}

func (t *gormTx) Rollback() error {
	return t.db.Rollback().Error
}

// DefaultBatchSize bounds the rows a single write statement carries. An UPDATE
// binds five parameters per row, so a full chunk stays under the 32766
// variable limit of SQLite and the 65535 placeholders of MySQL and PostgreSQL.
const DefaultBatchSize = 500

// Store reads and writes organizational units in the departments table.
// Writes run inside a caller-managed transaction; the store never commits or
// rolls back on its own.
type Store struct {
	db        *gorm.DB
	batchSize int
}

// Option configures a Store.
type Option func(*Store)

// WithBatchSize sets the maximum rows per write statement. Values below one
// keep the default.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// New creates a store over an open connection.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin opens a transaction on the connection.
func (s *Store) Begin(ctx context.Context) (Tx, error) {
	if s.db == nil {
		return nil, &models.ConnectivityError{Err: errors.New("no database connection")}
	}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, &models.ConnectivityError{Err: tx.Error}
	}
	return &gormTx{db: tx}, nil
}

// FetchAll reads every record. With a nil tx it reads through the base connection.
func (s *Store) FetchAll(ctx context.Context, tx Tx) (models.Collection, error) {
	conn, err := s.conn(ctx, tx)
	if err != nil {
		return nil, err
	}

	var rows []models.Department
	if err := conn.Select(models.Columns).Find(&rows).Error; err != nil {
		return nil, &models.StoreError{Op: "fetch", Err: err}
	}

	c := make(models.Collection, len(rows))
	for _, row := range rows {
		if err := c.Add("store", row.ToOrgUnit()); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// InsertAll creates the given records with multi-row INSERTs of at most
// batchSize rows each.
func (s *Store) InsertAll(ctx context.Context, tx Tx, units []models.OrgUnit) error {
	if len(units) == 0 {
		return nil
	}
	conn, err := s.conn(ctx, tx)
	if err != nil {
		return err
	}

	rows := make([]models.Department, 0, len(units))
	for _, u := range units {
		row := models.FromOrgUnit(u)
		row.ID = 0
		rows = append(rows, row)
	}

	for _, part := range chunk(rows, s.batchSize) {
		if err := conn.Create(&part).Error; err != nil {
			return &models.StoreError{Op: "insert", Err: err}
		}
	}
	return nil
}

// UpdateAll rewrites the description of the given records, addressing each
// row by its (code, job) key. Each UPDATE covers at most batchSize rows.
func (s *Store) UpdateAll(ctx context.Context, tx Tx, units []models.OrgUnit) error {
	if len(units) == 0 {
		return nil
	}
	conn, err := s.conn(ctx, tx)
	if err != nil {
		return err
	}

	for _, part := range chunk(units, s.batchSize) {
		var sb strings.Builder
		args := make([]interface{}, 0, len(part)*3)
		sb.WriteString("CASE")
		for _, u := range part {
			sb.WriteString(" WHEN depcode = ? AND depjob = ? THEN ?")
			args = append(args, u.Key.Code, u.Key.Job, u.Description)
		}
		sb.WriteString(" ELSE description END")

		err := conn.Model(&models.Department{}).
			Where("(depcode, depjob) IN ?", keyPairs(part)).
			Update("description", gorm.Expr(sb.String(), args...)).Error
		if err != nil {
			return &models.StoreError{Op: "update", Err: err}
		}
	}
	return nil
}

// DeleteAll removes the given records by key, batchSize rows per DELETE.
func (s *Store) DeleteAll(ctx context.Context, tx Tx, units []models.OrgUnit) error {
	if len(units) == 0 {
		return nil
	}
	conn, err := s.conn(ctx, tx)
	if err != nil {
		return err
	}

	for _, part := range chunk(units, s.batchSize) {
		err := conn.Where("(depcode, depjob) IN ?", keyPairs(part)).
			Delete(&models.Department{}).Error
		if err != nil {
			return &models.StoreError{Op: "delete", Err: err}
		}
	}
	return nil
}

// EnsureSchema creates or migrates the departments table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Department{}); err != nil {
		return &models.StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// VerifySchema returns the columns the store needs that the live table lacks.
func (s *Store) VerifySchema(ctx context.Context) ([]string, error) {
	missing, err := database.MissingColumns(s.db.WithContext(ctx), models.Department{}.TableName(), models.Columns)
	if err != nil {
		return nil, &models.StoreError{Op: "inspect", Err: err}
	}
	return missing, nil
}

// conn picks the handle a statement runs on.
func (s *Store) conn(ctx context.Context, tx Tx) (*gorm.DB, error) {
	if tx == nil {
		if s.db == nil {
			return nil, &models.ConnectivityError{Err: errors.New("no database connection")}
		}
		return s.db.WithContext(ctx), nil
	}
	t, ok := tx.(*gormTx)
	if !ok {
		return nil, fmt.Errorf("transaction %T was not opened by this store", tx)
	}
	return t.db.WithContext(ctx), nil
}

func keyPairs(units []models.OrgUnit) [][]interface{} {
	pairs := make([][]interface{}, 0, len(units))
	for _, u := range units {
		pairs = append(pairs, []interface{}{u.Key.Code, u.Key.Job})
	}
	return pairs
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	parts := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, parts = items[size:], append(parts, items[:size:size])
	}
	return append(parts, items)
}
