package ioingest

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/reltype"
	"github.com/astroinject/astroinject/pkg/table"
)

// Preprocess brings a freshly read table to the shape of the destination
// table. Steps run in order: names are lower-cased, drop_columns are
// removed, rename_columns are applied, masked numeric values are replaced
// by fill_value when it is set and add_null_columns are appended. Added
// columns stay NULL.
// Column names given in cfg are matched case-insensitively.
func Preprocess(tbl *table.Table, cfg *config.IngestConfig) error {
	if err := tbl.LowerNames(); err != nil {
		return err
	}

	drop := make([]string, len(cfg.DropColumns))
	for i, v := range cfg.DropColumns {
		drop[i] = strings.ToLower(v)
	}
	tbl.Drop(drop...)

	for _, from := range sortedKeys(cfg.RenameColumns) {
		src := strings.ToLower(from)
		if tbl.Index(src) < 0 {
			continue
		}
		dst := strings.ToLower(cfg.RenameColumns[from])
		if err := tbl.Rename(src, dst); err != nil {
			return err
		}
	}

	if cfg.FillValue != nil {
		for _, c := range tbl.Columns() {
			if !c.HasMissing() {
				continue
			}
			if res := c.Fill(*cfg.FillValue); res != c {
				if err := tbl.Replace(res); err != nil {
					return err
				}
			}
		}
	}

	for _, name := range sortedKeys(cfg.AddNullColumns) {
		col := strings.ToLower(name)
		typ, ok := reltype.Parse(cfg.AddNullColumns[name])
		if !ok {
			return fmt.Errorf("%w: %q for column %q",
				reltype.ErrUnsupportedType, cfg.AddNullColumns[name], col)
		}
		if tbl.Index(col) >= 0 {
			slog.Warn("Column already exists, not adding it", "column", col)
			continue
		}
		err := tbl.Add(table.NewNull(col, typ.Kind(), typ.IsArray(), tbl.Len()))
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}
