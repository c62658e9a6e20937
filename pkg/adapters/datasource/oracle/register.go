package oracle

import (
	"context"

	"github.com/ekaya-inc/ekaya-oracle/pkg/adapters/datasource"
	oracledialect "github.com/ekaya-inc/ekaya-oracle/pkg/dialect/oracle"
)

// DefaultConcurrency is the suggested number of in-flight statements per datasource.
const DefaultConcurrency = 2

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:               DSType,
			DisplayName:        "Oracle Database",
			Description:        "Connect to Oracle Database 12c+ and Oracle Autonomous Database",
			Dialect:            oracledialect.Name,
			DefaultConcurrency: DefaultConcurrency,
		},
		Factory: func(ctx context.Context, config map[string]any, deps datasource.Dependencies) (datasource.Adapter, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(cfg, deps)
		},
	})
}
