package mysql

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

func init() {
	factory := func(spec datasource.ConnectionSpec, logger *zap.Logger) (datasource.Connection, error) {
		cfg, err := FromSpec(spec)
		if err != nil {
			return nil, err
		}
		return NewAdapter(cfg, spec, logger)
	}

	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        datasource.DialectMySQL,
			DisplayName: "MySQL",
			Driver:      "mysql",
		},
		Factory: factory,
	})

	// Doris speaks the MySQL protocol but lacks full catalog support
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        datasource.DialectDoris,
			DisplayName: "Apache Doris",
			Driver:      "mysql",
		},
		Factory: factory,
	})
}
