package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/config"
)

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: PG\n  database: shop\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "pg", cfg.Source.Type)
	assert.Equal(t, Version, cfg.Version)
}

func TestRegisteredDialects(t *testing.T) {
	var types []string
	for _, info := range datasource.RegisteredAdapters() {
		types = append(types, info.Type)
	}
	assert.Equal(t, []string{"doris", "mssql", "mysql", "oracle", "postgresql"}, types)
}

func TestRun_UnknownMode(t *testing.T) {
	err := run(context.Background(), "bogus", "", &config.Config{}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, `unknown mode "bogus"`)
}

func TestRun_SyncRequiresConfiguration(t *testing.T) {
	err := run(context.Background(), modeSync, "", &config.Config{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "knowledge.api_url is required")
}

func TestRun_ServeRejectsMissingCredentials(t *testing.T) {
	err := run(context.Background(), modeServe, "", &config.Config{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, apperrors.ErrCredentialValidation)
}

func TestSourceSpec(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{
		Type: "mssql", Host: "sql", Port: 1433, Username: "sa", Password: "p",
		Database: "shop", Schema: "sales", ConnectRetries: 2,
	}}

	assert.Equal(t, datasource.ConnectionSpec{
		Dialect: "mssql", Host: "sql", Port: 1433, Username: "sa", Password: "p",
		Database: "shop", Schema: "sales", ConnectRetries: 2,
	}, sourceSpec(cfg))
}
