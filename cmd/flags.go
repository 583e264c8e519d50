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
	"fmt"
	"os"

	"github.com/astroinject/astroinject/internal/iodb"
	app "github.com/astroinject/astroinject/pkg"
	"github.com/astroinject/astroinject/pkg/db"
	"github.com/astroinject/astroinject/pkg/records"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", app.Version, app.Build)
		os.Exit(0)
	}
}

// connectionInfo is shown to the user after a successful connection.
func connectionInfo() {
	d := cfg.Database
	if d.DSN != "" {
		gn.Info("Connected to database from <em>DSN</em>")
		return
	}
	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		d.User, d.Host, d.Port, d.Database)
}

// loaderOptions returns COPY settings for the configured wire format.
func loaderOptions() records.Options {
	f, _ := records.ParseFormat(cfg.Ingest.CopyFormat)
	return records.Options{Format: f}
}

// connect opens a loader with the configured database settings.
func connect(ctx context.Context) (db.Loader, error) {
	l := iodb.NewLoader(loaderOptions())
	if err := l.Connect(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	connectionInfo()
	return l, nil
}
