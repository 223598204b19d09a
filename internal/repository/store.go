package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendor-service/prometheus"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique index
	ErrDuplicate = errors.New("duplicate key")
)

// Store owns every persisted entity of the service. A Store is bound either to the
// root connection or to a single transaction; see InTx.
type Store struct {
	db *gorm.DB
}

// New returns a Store bound to db
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a transaction with a Store bound to it.
// fn's error rolls the transaction back and is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Page describes an offset/limit window
type Page struct {
	Page  int
	Limit int
}

// Normalize applies the service defaults used by every list endpoint
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: clause.LockingStrengthUpdate}
}

func track(operation string) func() {
	start := time.Now()
	return func() {
		prometheus.TrackDBOperation(operation)(start)
	}
}
