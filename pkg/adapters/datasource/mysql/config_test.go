package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

func TestFromSpec(t *testing.T) {
	cfg, err := FromSpec(datasource.ConnectionSpec{Dialect: datasource.DialectMySQL, Host: "db", Username: "root", Database: "shop"})
	require.NoError(t, err)

	assert.Equal(t, 3306, cfg.Port)
	assert.False(t, cfg.Doris)
	assert.Equal(t, 30*time.Second, cfg.DialTimeout)
}

func TestFromSpec_Doris(t *testing.T) {
	cfg, err := FromSpec(datasource.ConnectionSpec{Dialect: datasource.DialectDoris, Host: "fe", Port: 9030, Database: "dw"})
	require.NoError(t, err)

	assert.True(t, cfg.Doris)
	assert.Equal(t, 9030, cfg.Port)
}

func TestFromSpec_Required(t *testing.T) {
	_, err := FromSpec(datasource.ConnectionSpec{Database: "shop"})
	assert.ErrorContains(t, err, "host is required")

	_, err = FromSpec(datasource.ConnectionSpec{Host: "db"})
	assert.ErrorContains(t, err, "database is required")
}

func TestDriverConfig(t *testing.T) {
	cfg := &Config{Host: "db.internal", Port: 3307, Database: "shop", Username: "app", Password: "p@ss(word)", DialTimeout: 5 * time.Second}

	dc := cfg.driverConfig()
	assert.Equal(t, "tcp", dc.Net)
	assert.Equal(t, "db.internal:3307", dc.Addr)
	assert.Equal(t, "shop", dc.DBName)
	assert.Equal(t, "p@ss(word)", dc.Passwd)
	assert.False(t, dc.InterpolateParams)

	cfg.Doris = true
	assert.True(t, cfg.driverConfig().InterpolateParams)
}

func TestDriverConfig_IPv6Host(t *testing.T) {
	cfg := &Config{Host: "::1", Port: 3306, Database: "shop"}
	assert.Equal(t, "[::1]:3306", cfg.driverConfig().Addr)
}
