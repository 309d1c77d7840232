package mssql

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        datasource.DialectMSSQL,
			DisplayName: "Microsoft SQL Server",
			Driver:      "sqlserver",
		},
		Factory: func(spec datasource.ConnectionSpec, logger *zap.Logger) (datasource.Connection, error) {
			cfg, err := FromSpec(spec)
			if err != nil {
				return nil, err
			}
			return NewAdapter(cfg, spec, logger)
		},
	})
}
