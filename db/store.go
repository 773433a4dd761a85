package db

import (
	"context"
	"errors"

	"propertyetl/model"
)

var ErrNotConnected = errors.New("db: store is not initialized")

type Store interface {
	Ping(ctx context.Context) error
	Replace(ctx context.Context, table model.Table) error
	CountRows(ctx context.Context, table string) (int64, error)
	Close() error
}
