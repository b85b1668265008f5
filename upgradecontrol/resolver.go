package upgradecontrol

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Target names the workload to upgrade the way a user types it.
type Target struct {
	Cluster     string
	Environment string
	Stack       string
	Service     string
}

type Resolution struct {
	Cluster   *rancherrest.Cluster
	Project   *rancherrest.Project
	Namespace *rancherrest.Namespace
	Workload  *rancherrest.Workload
}

// FindFirst returns the first item accepted by match along with how many items
// matched in total. Rancher gives no uniqueness guarantee for names, so when
// several match the result depends on the order the API returned them in.
func FindFirst[T any](items []T, match func(T) bool) (T, int, bool) {
	matches := lo.Filter(items, func(item T, _ int) bool {
		return match(item)
	})

	if len(matches) == 0 {
		var empty T
		return empty, 0, false
	}

	return matches[0], len(matches), true
}

func MatchIDOrName(id, name, input string) bool {
	return strings.EqualFold(id, input) || strings.EqualFold(name, input)
}

func MatchName(name, input string) bool {
	return strings.EqualFold(name, input)
}

func (c *Controller) warnAmbiguous(kind ResourceKind, input string, count int, chosenID string) {
	if count <= 1 {
		return
	}

	c.logger.Warn("multiple resources matched",
		zap.String("kind", string(kind)),
		zap.String("input", input),
		zap.Int("matches", count),
		zap.String("chosen", chosenID))
	c.console.Warn("%d %ss match '%s', using the first one returned (%s)", count, kind, input, chosenID)
}

func (c *Controller) connectError(stage string, err error) error {
	return &StageError{
		Stage:   stage,
		Message: fmt.Sprintf("Unable to connect to Rancher at %s - is the URL and API key right?", c.host),
		Cause:   err,
	}
}

// Resolve walks cluster, environment, stack and service in order, each lookup
// scoped by the id found in the step before it.
func (c *Controller) Resolve(ctx context.Context, target Target) (*Resolution, error) {
	c.logger.Info("attempting to identify cluster", zap.String("input", target.Cluster))
	clusters, err := c.client.ListClusters(ctx)
	if err != nil {
		return nil, c.connectError("list clusters", err)
	}

	cluster, count, found := FindFirst(clusters, func(cluster *rancherrest.Cluster) bool {
		return cluster != nil && MatchIDOrName(cluster.ID, cluster.Name, target.Cluster)
	})
	if !found {
		return nil, &NotFoundError{Kind: KindCluster, Input: target.Cluster}
	}
	c.warnAmbiguous(KindCluster, target.Cluster, count, cluster.ID)

	c.logger.Info("attempting to identify environment",
		zap.String("input", target.Environment),
		zap.String("clusterId", cluster.ID))
	projects, err := c.client.ListProjects(ctx, cluster.ID)
	if err != nil {
		return nil, c.connectError("list projects", err)
	}

	project, count, found := FindFirst(projects, func(project *rancherrest.Project) bool {
		return project != nil && MatchIDOrName(project.ID, project.Name, target.Environment)
	})
	if !found {
		return nil, &NotFoundError{Kind: KindEnvironment, Input: target.Environment, Scope: cluster.Name}
	}
	c.warnAmbiguous(KindEnvironment, target.Environment, count, project.ID)

	c.logger.Info("attempting to identify stack",
		zap.String("input", target.Stack),
		zap.String("projectId", project.ID))
	namespaces, err := c.client.ListNamespaces(ctx, cluster.ID, project.ID)
	if err != nil {
		return nil, &StageError{
			Stage:   "list namespaces",
			Message: fmt.Sprintf("Unable to fetch a list of stacks in the environment '%s'", project.Name),
			Cause:   err,
		}
	}

	namespace, count, found := FindFirst(namespaces, func(namespace *rancherrest.Namespace) bool {
		return namespace != nil && MatchName(namespace.Name, target.Stack)
	})
	if !found {
		return nil, &NotFoundError{Kind: KindStack, Input: target.Stack, Scope: project.Name}
	}
	c.warnAmbiguous(KindStack, target.Stack, count, namespace.ID)

	c.logger.Info("attempting to identify service",
		zap.String("input", target.Service),
		zap.String("namespaceId", namespace.ID))
	workloads, err := c.client.ListWorkloads(ctx, project.ID, namespace.ID)
	if err != nil {
		return nil, &StageError{
			Stage:   "list workloads",
			Message: "Unable to fetch a list of services in the stack. Does your API key have the right permissions?",
			Cause:   err,
		}
	}

	workload, count, found := FindFirst(workloads, func(workload *rancherrest.Workload) bool {
		return workload != nil && MatchName(workload.Name, target.Service)
	})
	if !found {
		return nil, &NotFoundError{Kind: KindService, Input: target.Service, Scope: namespace.Name}
	}
	c.warnAmbiguous(KindService, target.Service, count, workload.ID)

	return &Resolution{
		Cluster:   cluster,
		Project:   project,
		Namespace: namespace,
		Workload:  workload,
	}, nil
}
