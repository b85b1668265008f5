package upgradecontrol

import (
	"context"
	"time"

	"github.com/couchbaselabs/rancher-gitlab-deploy/deployconfig"
	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"go.uber.org/zap"
)

// Client is the slice of the Rancher API an upgrade needs.
type Client interface {
	ListClusters(ctx context.Context) ([]*rancherrest.Cluster, error)
	ListProjects(ctx context.Context, clusterID string) ([]*rancherrest.Project, error)
	ListNamespaces(ctx context.Context, clusterID, projectID string) ([]*rancherrest.Namespace, error)
	ListWorkloads(ctx context.Context, projectID, namespaceID string) ([]*rancherrest.Workload, error)
	GetWorkload(ctx context.Context, selfURL string) (*rancherrest.Workload, error)
	UpdateWorkload(ctx context.Context, selfURL string, workload *rancherrest.Workload) (*rancherrest.Workload, error)
}

var _ Client = (*rancherrest.Client)(nil)

type Console interface {
	Msg(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type Controller struct {
	logger       *zap.Logger
	client       Client
	console      Console
	host         string
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
	pollInterval time.Duration
}

type ControllerOptions struct {
	Logger  *zap.Logger
	Client  Client
	Console Console

	// Host names the Rancher server in connection errors.
	Host string

	// Now and Sleep default to the wall clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	PollInterval time.Duration
}

func NewController(opts *ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = deployconfig.DEFAULT_POLL_INTERVAL
	}

	console := opts.Console
	if console == nil {
		console = nopConsole{}
	}

	return &Controller{
		logger:       logger,
		client:       opts.Client,
		console:      console,
		host:         opts.Host,
		now:          now,
		sleep:        sleep,
		pollInterval: pollInterval,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type nopConsole struct{}

func (nopConsole) Msg(string, ...interface{})  {}
func (nopConsole) Warn(string, ...interface{}) {}

type Request struct {
	Target   Target
	NewImage string
	Wait     bool
	Timeout  time.Duration
}

// Run resolves the target, requests the upgrade and optionally waits for the
// workload to settle. The first error ends the run.
func (c *Controller) Run(ctx context.Context, req Request) error {
	resolution, err := c.Resolve(ctx, req.Target)
	if err != nil {
		return err
	}

	_, err = c.Upgrade(ctx, resolution, UpgradeOptions{
		NewImage: req.NewImage,
		Now:      c.now(),
	})
	if err != nil {
		return err
	}

	if !req.Wait {
		c.console.Msg("Upgrade started")
		return nil
	}

	c.console.Msg("Upgrade started, waiting for upgrade to complete...")

	err = c.WaitForReady(ctx, resolution.Workload.SelfLink(), req.Timeout)
	if err != nil {
		return err
	}

	c.console.Msg("Upgrade finished")
	return nil
}
