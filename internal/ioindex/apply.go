package ioindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
)

// ApplyIndexes creates the spatial index of req.Kind and btree indexes
// on req.BtreeColumns, then refreshes table statistics.
func (m *Manager) ApplyIndexes(ctx context.Context, req lifecycle.IndexRequest) error {
	tn := req.Table.String()
	var queries []string

	switch req.Kind {
	case schema.PgSphere, schema.Q3C:
		if req.RA == "" || req.Dec == "" {
			return CreateError(tn, errors.New("spatial index needs RA and Dec columns"))
		}
		ext := []string{"pgsphere", "pg_sphere"}
		if req.Kind == schema.Q3C {
			ext = []string{"q3c"}
		}
		ok, err := m.hasExtension(ctx, ext...)
		if err != nil {
			return CreateError(tn, err)
		}
		if !ok {
			return ExtensionMissingError(ext[0])
		}

		name := schema.SpatialIndexName(req.Kind, req.Table.Name, req.RA, req.Dec)
		if req.Kind == schema.PgSphere {
			queries = append(queries,
				schema.PgSphereIndexSQL(req.Table, name, req.RA, req.Dec, req.Concurrently))
		} else {
			queries = append(queries,
				schema.Q3CIndexSQL(req.Table, name, req.RA, req.Dec, req.Concurrently))
		}
	case schema.Btree:
	default:
		return CreateError(tn, fmt.Errorf("unknown index kind %q", req.Kind))
	}

	for _, col := range req.BtreeColumns {
		name := schema.BtreeIndexName(req.Table.Name, col)
		queries = append(queries,
			schema.BtreeIndexSQL(req.Table, name, col, req.Concurrently))
	}
	if len(queries) == 0 {
		slog.Warn("No indexes requested", "table", tn)
		return nil
	}

	for _, q := range queries {
		slog.Info("Creating index", "table", tn, "sql", q)
		if err := m.ddl(ctx, q); err != nil {
			return CreateError(tn, err)
		}
	}
	if err := m.exec.VacuumAnalyze(ctx, req.Table); err != nil {
		return err
	}
	slog.Info("Indexes applied", "table", tn, "count", len(queries))
	return nil
}
