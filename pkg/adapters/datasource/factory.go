package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-oracle/pkg/apperrors"
)

// NewAdapter creates an adapter for dsType from the registry.
// Missing dependencies are replaced with no-op implementations.
func NewAdapter(ctx context.Context, dsType string, config map[string]any, deps Dependencies) (Adapter, error) {
	reg, ok := GetRegistration(dsType)
	if !ok || reg.Factory == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedDatasource, dsType)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	return reg.Factory(ctx, config, deps)
}
