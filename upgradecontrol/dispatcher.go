package upgradecontrol

import (
	"context"
	"time"

	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"go.uber.org/zap"
)

const (
	AnnotationUpdateTime = "gitlab.com/updateTime"

	updateTimeLayout = "20060102150405"
)

type UpgradeOptions struct {
	// NewImage replaces the image of the first container when set.
	NewImage string
	Now      time.Time
}

// BuildUpgradeRequest derives the record to submit from the fetched workload.
// The input is left untouched.
func BuildUpgradeRequest(workload *rancherrest.Workload, opts UpgradeOptions) (*rancherrest.Workload, error) {
	upgrade := workload.DeepCopy()

	if upgrade.Annotations == nil {
		upgrade.Annotations = make(map[string]string)
	}
	upgrade.Annotations[AnnotationUpdateTime] = opts.Now.Format(updateTimeLayout)

	if opts.NewImage != "" {
		if len(upgrade.Containers) == 0 || upgrade.Containers[0] == nil {
			return nil, ErrNoContainers
		}

		upgrade.Containers[0].Image = opts.NewImage
	}

	return upgrade, nil
}

// Upgrade submits the upgrade for a resolved workload that is currently active.
func (c *Controller) Upgrade(ctx context.Context, resolution *Resolution, opts UpgradeOptions) (*rancherrest.Workload, error) {
	workload := resolution.Workload

	if workload.State != rancherrest.StateActive {
		return nil, &NotReadyError{State: workload.State}
	}

	selfLink := workload.SelfLink()
	if selfLink == "" {
		return nil, ErrNoSelfLink
	}

	c.console.Msg("Upgrading %s/%s in environment %s of cluster %s...",
		resolution.Namespace.Name, workload.Name, resolution.Project.Name, resolution.Cluster.Name)

	upgrade, err := BuildUpgradeRequest(workload, opts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("requesting upgrade",
		zap.String("workload", workload.ID),
		zap.String("updateTime", upgrade.Annotations[AnnotationUpdateTime]),
		zap.String("newImage", opts.NewImage))

	updated, err := c.client.UpdateWorkload(ctx, selfLink, upgrade)
	if err != nil {
		return nil, &StageError{
			Stage:   "update workload",
			Message: "Unable to request an upgrade on Rancher",
			Cause:   err,
		}
	}

	return updated, nil
}
