package shipping

import (
	"context"
	"fmt"

	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// step is one unit of the provisioning sequence. Critical steps abort the
// run on failure; best-effort steps are logged and skipped because the
// shipment they decorate already exists and can be retried independently.
type step struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

// runSteps executes the steps in order and returns the names of best-effort
// steps that failed.
func runSteps(ctx context.Context, logg *logger.Logger, steps []step) ([]string, error) {
	var degraded []string
	for _, s := range steps {
		err := s.run(ctx)
		if err == nil {
			continue
		}
		if s.critical {
			if typed := pkgerrors.As(err); typed != nil {
				return degraded, typed.WithDetails(map[string]any{"step": s.name})
			}
			return degraded, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("shipment step %s failed", s.name))
		}
		degraded = append(degraded, s.name)
		if logg != nil {
			stepCtx := logg.WithField(ctx, "step", s.name)
			logg.Warn(stepCtx, "best-effort shipment step failed")
		}
	}
	return degraded, nil
}
