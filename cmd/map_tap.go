/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"

	"github.com/astroinject/astroinject/internal/iocatalog"
	"github.com/astroinject/astroinject/internal/ioconfig"
	"github.com/astroinject/astroinject/internal/ioindex"
	"github.com/astroinject/astroinject/internal/iotap"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getMapTapCmd returns the map-tap command.
func getMapTapCmd() *cobra.Command {
	mapTapCmd := &cobra.Command{
		Use:   "map-tap",
		Short: "Register a loaded table in TAP_SCHEMA",
		Long: `Register the table of ingest.tablename in TAP_SCHEMA, so a TAP
service can publish it.

TAP_SCHEMA and its tables are created when missing. Columns come from the
database catalog in their table order; id, ra and dec are marked as
principal. Rows that are already registered are left untouched.

Examples:
  astroinject map-tap -b base.yaml -c gaia.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runMapTap()
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}
	return mapTapCmd
}

func runMapTap() error {
	ctx := context.Background()

	if cfg.Ingest.TableName == "" {
		return ioconfig.MissingFieldError("ingest.tablename")
	}
	t := schema.ParseTableName(cfg.Ingest.TableName)

	l, err := connect(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	ok, err := l.TableExists(ctx, t)
	if err != nil {
		return err
	}
	if !ok {
		return ioindex.TableNotFoundError(t.String())
	}

	fields, err := iocatalog.FieldsFromCatalog(ctx, l, t)
	if err != nil {
		return err
	}

	r, err := iotap.Open(l.ConnConfig())
	if err != nil {
		return err
	}
	defer r.Close()

	if err = r.Register(ctx, t, fields); err != nil {
		return err
	}
	gn.Info("Table <em>%s</em> is registered in TAP_SCHEMA with %d columns",
		t.String(), len(fields))
	return nil
}
