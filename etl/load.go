package etl

import (
	"context"
	"errors"

	"propertyetl/db"
	"propertyetl/model"

	"go.uber.org/zap"
)

var ErrDatabaseNotReady = errors.New("etl: database did not become ready")

// TableOutcome records how loading one table went. Err is nil on success.
type TableOutcome struct {
	Table string
	Rows  int
	Err   error
}

func (o TableOutcome) OK() bool { return o.Err == nil }

// Load replaces every table of schema in store. A failed table is logged and
// recorded; the remaining tables are still attempted.
func Load(ctx context.Context, store db.Store, schema *model.StarSchema, logger *zap.SugaredLogger) []TableOutcome {
	tables := schema.Tables()
	outcomes := make([]TableOutcome, 0, len(tables))
	for _, table := range tables {
		outcome := TableOutcome{Table: table.Name, Rows: table.Len}
		if err := store.Replace(ctx, table); err != nil {
			outcome.Err = err
			logger.Errorw("error inserting data into table", "table", table.Name, "error", err)
			outcomes = append(outcomes, outcome)
			continue
		}
		if n, err := store.CountRows(ctx, table.Name); err != nil {
			logger.Warnw("loaded table but could not count rows", "table", table.Name, "error", err)
		} else {
			logger.Infow("table loaded", "table", table.Name, "rows", n)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// failAll marks every table of schema as failed with err.
func failAll(schema *model.StarSchema, err error) []TableOutcome {
	tables := schema.Tables()
	outcomes := make([]TableOutcome, 0, len(tables))
	for _, table := range tables {
		outcomes = append(outcomes, TableOutcome{Table: table.Name, Rows: table.Len, Err: err})
	}
	return outcomes
}
