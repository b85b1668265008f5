package upgradecontrol

import (
	"context"
	"time"

	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WaitForReady polls the workload at selfURL every poll interval until it is
// active again. It gives up once the time spent sleeping exceeds timeout.
func (c *Controller) WaitForReady(ctx context.Context, selfURL string, timeout time.Duration) error {
	desiredState := rancherrest.StateActive

	var elapsed time.Duration
	for {
		err := c.sleep(ctx, c.pollInterval)
		if err != nil {
			return errors.Wrap(err, "stopped waiting for the upgrade")
		}

		elapsed += c.pollInterval
		if elapsed > timeout {
			return ErrUpgradeTimeout
		}

		workload, err := c.client.GetWorkload(ctx, selfURL)
		if err != nil {
			return &StageError{
				Stage:   "get workload",
				Message: "Unable to fetch the service status from the Rancher API",
				Cause:   err,
			}
		}

		if workload.State == desiredState {
			return nil
		}

		c.logger.Info("waiting for workload state...",
			zap.String("current", workload.State),
			zap.String("desired", desiredState),
			zap.Duration("elapsed", elapsed))
	}
}
