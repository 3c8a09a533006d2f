package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntoujavaproject/store-strategist/internal/config"
	"github.com/ntoujavaproject/store-strategist/internal/monitoring"
	"github.com/ntoujavaproject/store-strategist/internal/store"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"discover", "collect", "collect-one", "featured", "upload", "sync-index", "status", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "strategist", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("metrics-addr"))
}

func TestCollectCommands_Flags(t *testing.T) {
	for _, name := range []string{"lat", "lon", "radius", "cell-radius", "sort", "max-pages", "snapshot"} {
		assert.NotNil(t, collectCmd.Flags().Lookup(name), "collect should have --%s", name)
	}
	for _, cmd := range []*cobra.Command{collectOneCmd, featuredCmd} {
		assert.NotNil(t, cmd.Flags().Lookup("id"))
		assert.NotNil(t, cmd.Flags().Lookup("name"))
	}

	top := featuredCmd.Flags().Lookup("top")
	require.NotNil(t, top)
	assert.Equal(t, "0", top.DefValue)

	limit := uploadCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "1000", limit.DefValue)
}

func TestTargetFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "t"}
	addTargetFlags(cmd)

	_, err := targetFromFlags(cmd)
	assert.Error(t, err)

	require.NoError(t, cmd.Flags().Set("name", "鼎泰豐"))
	target, err := targetFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "鼎泰豐", target.Name)
	assert.Empty(t, target.ID)
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestApplyAreaFlags_OnlyChangedFlags(t *testing.T) {
	withConfig(t, &config.Config{Grid: config.GridConfig{Lat: 25.033, Lon: 121.5654, RadiusM: 1000, CellRadiusM: 300}})

	cmd := &cobra.Command{Use: "t"}
	addAreaFlags(cmd)
	require.NoError(t, cmd.Flags().Set("radius", "500"))

	applyAreaFlags(cmd)
	assert.InDelta(t, 500.0, cfg.Grid.RadiusM, 0.001)
	assert.InDelta(t, 25.033, cfg.Grid.Lat, 0.00001)
	assert.InDelta(t, 300.0, cfg.Grid.CellRadiusM, 0.001)
}

func TestValidateFor_DryRunSkipsProject(t *testing.T) {
	withConfig(t, &config.Config{
		Grid: config.GridConfig{Lat: 25.033, Lon: 121.5654, RadiusM: 1000, CellRadiusM: 300},
		Pool: config.PoolConfig{Size: 10},
	})

	cmd := &cobra.Command{Use: "t"}
	cmd.Flags().Bool("dry-run", false, "")
	assert.Error(t, validateFor(cmd, "discover"))

	require.NoError(t, cmd.Flags().Set("dry-run", "true"))
	assert.NoError(t, validateFor(cmd, "discover"))
	assert.Empty(t, cfg.Firestore.ProjectID)
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	runs := []store.Run{
		{ID: "4f9c2a6e-1111-2222-3333-444455556666", Kind: store.RunKindCollect, Status: store.RunStatusComplete,
			Lat: 25.033, Lon: 121.5654, RadiusM: 1000, CreatedAt: created, UpdatedAt: created.Add(90 * time.Second)},
		{ID: "short", Kind: store.RunKindOne, Status: store.RunStatusFailed, CreatedAt: created, UpdatedAt: created},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "4f9c2a6e")
	assert.NotContains(t, out, "4f9c2a6e-1111")
	assert.Contains(t, out, "25.0330,121.5654")
	assert.Contains(t, out, "1000m")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "collect_one")
	assert.Contains(t, out, "2026-03-01 09:30")
}

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, &monitoring.StatusSnapshot{
		Restaurants:    12,
		PendingUploads: 2,
		RunsTotal:      4,
		RunsComplete:   3,
		RunsFailed:     1,
		RunFailRate:    0.25,
	})
	out := buf.String()
	assert.Contains(t, out, "Restaurants:")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "25.0%")
}

func TestWriteConfigYAML_RedactsSecrets(t *testing.T) {
	c := &config.Config{}
	c.SearchIndex.APIKey = "algolia-secret"
	c.SearchIndex.Index = "restaurants"
	c.Store.Driver = "postgres"
	c.Store.DatabaseURL = "postgres://user:pw@db/strategist"

	var buf bytes.Buffer
	require.NoError(t, writeConfigYAML(&buf, c, false))
	out := buf.String()
	assert.Contains(t, out, "search_index:")
	assert.Contains(t, out, "index: restaurants")
	assert.NotContains(t, out, "algolia-secret")
	assert.NotContains(t, out, "pw@db")
	assert.Equal(t, "algolia-secret", c.SearchIndex.APIKey, "input must not be mutated")

	buf.Reset()
	require.NoError(t, writeConfigYAML(&buf, c, true))
	assert.Contains(t, buf.String(), "algolia-secret")
}

func TestWriteJSON_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"name": "A & B <Bistro>"}))
	assert.Contains(t, buf.String(), "A & B <Bistro>")
}
