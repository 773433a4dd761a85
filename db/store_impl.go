package db

import (
	"context"
	"fmt"
	"time"

	"propertyetl/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 500

type SQLStore struct {
	db        *gorm.DB
	batchSize int
	logger    *zap.SugaredLogger
}

func NewSQLStore(db *gorm.DB, batchSize int, logger *zap.SugaredLogger) *SQLStore {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLStore{db: db, batchSize: batchSize, logger: logger}
}

// Ping verifies the underlying database connection is healthy.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Replace drops table if it exists, recreates it from the table's model and
// inserts every row. The three steps share one transaction, so a failed
// insert leaves the previous contents in place on databases with
// transactional DDL.
func (s *SQLStore) Replace(ctx context.Context, table model.Table) error {
	if s == nil || s.db == nil {
		return ErrNotConnected
	}
	started := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// No CASCADE: a dependent view makes the drop fail instead of
		// disappearing with the table.
		if err := tx.Exec("DROP TABLE IF EXISTS ?", clause.Table{Name: table.Name}).Error; err != nil {
			return fmt.Errorf("drop table %s: %w", table.Name, err)
		}
		if err := tx.Migrator().CreateTable(table.Model); err != nil {
			return fmt.Errorf("create table %s: %w", table.Name, err)
		}
		if table.Len == 0 {
			return nil
		}
		if err := tx.CreateInBatches(table.Rows, s.batchSize).Error; err != nil {
			return fmt.Errorf("insert into %s: %w", table.Name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debugw("table replaced", "table", table.Name, "rows", table.Len, "took", time.Since(started))
	return nil
}

// CountRows returns the number of rows currently stored in table.
func (s *SQLStore) CountRows(ctx context.Context, table string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotConnected
	}
	var n int64
	if err := s.db.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
