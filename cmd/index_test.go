package cmd

import (
	"testing"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/lifecycle"
	"github.com/astroinject/astroinject/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfig(t *testing.T, opts ...config.Option) {
	t.Helper()
	old := cfg
	cfg = config.New()
	cfg.Update(opts)
	t.Cleanup(func() { cfg = old })
}

func TestGetIndexCmd_Flags(t *testing.T) {
	cmd := getIndexCmd()
	assert.Equal(t, "index", cmd.Use)
	for _, n := range []string{"table", "kind", "ra", "dec", "btree", "concurrently"} {
		assert.NotNil(t, cmd.Flags().Lookup(n), n)
	}
	assert.Equal(t, "t", cmd.Flags().Lookup("table").Shorthand)
}

func TestIndexRequest(t *testing.T) {
	withConfig(t,
		config.OptIngestTableName("dr3.gaia"),
		config.OptIndexRACol("ra"),
		config.OptIndexDecCol("dec"),
		config.OptIndexBtreeColumns([]string{"mag"}),
	)

	tests := []struct {
		msg  string
		args []string
		kind schema.IndexKind
		tbl  string
		ra   string
		bt   []string
		err  bool
	}{
		{"from config", nil, schema.PgSphere, "dr3.gaia", "ra", []string{"mag"}, false},
		{"flags win", []string{"-t", "sky.obj", "--kind", "q3c", "--ra", "raj2000"},
			schema.Q3C, "sky.obj", "raj2000", []string{"mag"}, false},
		{"btree only", []string{"--kind", "btree", "--btree", "a,b"},
			schema.Btree, "dr3.gaia", "ra", []string{"a", "b"}, false},
		{"unknown kind", []string{"--kind", "rtree"}, "", "", "", nil, true},
	}

	for _, v := range tests {
		cmd := getIndexCmd()
		var f indexFlags
		fs := cmd.Flags()
		require.NoError(t, fs.Parse(v.args), v.msg)
		f.table, _ = fs.GetString("table")
		f.kind, _ = fs.GetString("kind")
		f.ra, _ = fs.GetString("ra")
		f.dec, _ = fs.GetString("dec")
		f.btree, _ = fs.GetStringSlice("btree")

		req, err := indexRequest(cmd, f)
		if v.err {
			assert.Error(t, err, v.msg)
			continue
		}
		require.NoError(t, err, v.msg)
		assert.Equal(t, v.kind, req.Kind, v.msg)
		assert.Equal(t, v.tbl, req.Table.String(), v.msg)
		assert.Equal(t, v.ra, req.RA, v.msg)
		assert.Equal(t, "dec", req.Dec, v.msg)
		assert.Equal(t, v.bt, req.BtreeColumns, v.msg)
	}
}

func TestIndexRequestNoTable(t *testing.T) {
	withConfig(t)
	_, err := indexRequest(getIndexCmd(), indexFlags{})
	assert.Error(t, err)
}

func TestConfiguredIndexes(t *testing.T) {
	withConfig(t, config.OptIngestTableName("obj"))
	_, ok := configuredIndexes()
	assert.False(t, ok, "nothing asked")

	cfg.Update([]config.Option{config.OptIndexBtreeColumns([]string{"mag"})})
	req, ok := configuredIndexes()
	assert.True(t, ok)
	assert.Equal(t, schema.Btree, req.Kind)

	cfg.Update([]config.Option{
		config.OptIndexRACol("ra"),
		config.OptIndexDecCol("dec"),
		config.OptIndexKind("q3c"),
	})
	req, ok = configuredIndexes()
	assert.True(t, ok)
	assert.Equal(t, schema.Q3C, req.Kind)
	assert.Equal(t, "obj", req.Table.Name)
	assert.Equal(t, []string{"mag"}, req.BtreeColumns)
}

func TestMigrateOptions(t *testing.T) {
	tests := []struct {
		msg      string
		f        indexSchemaFlags
		mode     lifecycle.Mode
		ensurePK bool
	}{
		{"create", indexSchemaFlags{}, lifecycle.ModeCreate, false},
		{"recreate", indexSchemaFlags{recreate: true, ensurePK: true},
			lifecycle.ModeRecreate, true},
		{"drop-only wins", indexSchemaFlags{recreate: true, dropOnly: true, ensurePK: true},
			lifecycle.ModeDropOnly, false},
	}
	for _, v := range tests {
		opts := migrateOptions(v.f)
		assert.Equal(t, v.mode, opts.Mode, v.msg)
		assert.Equal(t, v.ensurePK, opts.EnsurePK, v.msg)
	}

	opts := migrateOptions(indexSchemaFlags{
		target:        "cat",
		raCandidates:  "RA_deg; ra",
		decCandidates: "",
		dryRun:        true,
	})
	assert.Equal(t, "cat", opts.Target)
	assert.Equal(t, []string{"ra_deg", "ra"}, opts.RACandidates)
	assert.Empty(t, opts.DecCandidates)
	assert.True(t, opts.DryRun)
}

func TestGetIndexSchemaCmd_Flags(t *testing.T) {
	cmd := getIndexSchemaCmd()
	assert.Equal(t, "index-schema", cmd.Use)
	for _, n := range []string{
		"schema", "name-like", "ra-candidates", "dec-candidates",
		"include-partitions", "recreate", "drop-only", "ensure-pk", "dry-run",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(n), n)
	}
	assert.Equal(t, "s", cmd.Flags().Lookup("schema").Shorthand)
	assert.Equal(t, "r", cmd.Flags().Lookup("ra-candidates").Shorthand)
	assert.Equal(t, "d", cmd.Flags().Lookup("dec-candidates").Shorthand)
}

func TestGetIngestCmd(t *testing.T) {
	cmd := getIngestCmd()
	assert.Equal(t, "ingest", cmd.Use)
	f := cmd.Flags().Lookup("jobs")
	require.NotNil(t, f)
	assert.Equal(t, "j", f.Shorthand)
	assert.Contains(t, cmd.Long, "COPY")
}

func TestGetMapTapCmd(t *testing.T) {
	cmd := getMapTapCmd()
	assert.Equal(t, "map-tap", cmd.Use)
	assert.Contains(t, cmd.Long, "TAP_SCHEMA")
}
