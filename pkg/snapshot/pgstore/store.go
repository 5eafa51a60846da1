package pgstore

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/snapshot"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
)

const (
	snapshotsTable = "snapshots"
)

// PgSnapshot is a row of the snapshots table.
type PgSnapshot struct {
	Key       string          `db:"key"`
	Assets    json.RawMessage `db:"assets"`
	CreatedAt time.Time       `db:"created_at" goqu:"skipinsert"`
	UpdatedAt time.Time       `db:"updated_at" goqu:"skipinsert"`
}

// Ensure PgSQL conforms to the snapshot.Store interface at compile time.
var _ snapshot.Store = (*PgSQL)(nil)

// Load reads the assets stored under key.
func (p *PgSQL) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	var row PgSnapshot
	found, err := p.Builder.From(snapshotsTable).
		Where(goqu.I("key").Eq(key)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not get snapshot from pg: %w", err)
	}
	if !found {
		return nil, serrors.With(serrors.ErrNotFound, "snapshot %q not found", key)
	}

	return snapshot.Decode(row.Assets)
}

// Save upserts the assets stored under key in a single statement.
func (p *PgSQL) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	b, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	_, err = p.Builder.Insert(snapshotsTable).
		Rows(goqu.Record{"key": key, "assets": string(b)}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"assets":     goqu.L("EXCLUDED.assets"),
			"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not store snapshot into pg: %w", err)
	}

	return nil
}
