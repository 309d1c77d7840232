package datasource

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/apperrors"
	"github.com/ekaya-inc/dbschema-knowledge/pkg/config"
)

// Normalized dialect tags.
const (
	DialectMySQL      = "mysql"
	DialectDoris      = "doris"
	DialectPostgreSQL = "postgresql"
	DialectMSSQL      = "mssql"
	DialectOracle     = "oracle"
)

var dialectAliases = map[string]string{
	"sqlserver": DialectMSSQL,
	"postgres":  DialectPostgreSQL,
	"pg":        DialectPostgreSQL,
}

// wireFamily maps dialects that speak another dialect's protocol to that dialect.
var wireFamily = map[string]string{
	DialectDoris: DialectMySQL,
}

var defaultPorts = map[string]int{
	DialectMySQL:      3306,
	DialectPostgreSQL: 5432,
	DialectMSSQL:      1433,
	DialectOracle:     1521,
}

// NormalizeDialect lower-cases the tag, resolves aliases and checks the registry.
// Unknown tags return an error wrapping apperrors.ErrUnsupportedDialect.
func NormalizeDialect(tag string) (string, error) {
	dialect := strings.ToLower(strings.TrimSpace(tag))
	if alias, ok := dialectAliases[dialect]; ok {
		dialect = alias
	}
	if !IsRegistered(dialect) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedDialect, tag)
	}
	return dialect, nil
}

// DriverDialect returns the wire-compatible family for a normalized dialect.
func DriverDialect(dialect string) string {
	if family, ok := wireFamily[dialect]; ok {
		return family
	}
	return dialect
}

// DefaultPort returns the standard port for a normalized dialect, or 0.
func DefaultPort(dialect string) int {
	return defaultPorts[DriverDialect(dialect)]
}

// BuildConnection normalizes spec and hands it to the registered factory.
// It never opens a network connection; call Open on the result.
// On error no Connection is returned.
func BuildConnection(spec ConnectionSpec, logger *zap.Logger) (Connection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect, err := NormalizeDialect(spec.Dialect)
	if err != nil {
		return nil, err
	}

	normalized := spec
	normalized.Dialect = dialect
	normalized.Host = config.ResolveHostForDocker(strings.TrimSpace(spec.Host))
	if normalized.Port == 0 {
		normalized.Port = DefaultPort(dialect)
	}

	factory := GetFactory(dialect)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q (not compiled in)", apperrors.ErrUnsupportedDialect, spec.Dialect)
	}

	conn, err := factory(normalized, logger.Named("datasource").With(zap.String("dialect", dialect)))
	if err != nil {
		return nil, fmt.Errorf("build %s connection: %w", dialect, err)
	}

	return conn, nil
}
