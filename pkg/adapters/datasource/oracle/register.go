package oracle

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/dbschema-knowledge/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        datasource.DialectOracle,
			DisplayName: "Oracle Database",
			Driver:      "oracle",
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
