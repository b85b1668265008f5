package cmd

import (
	"context"
	"os"

	"github.com/couchbaselabs/rancher-gitlab-deploy/contrib/buildversion"
	"github.com/couchbaselabs/rancher-gitlab-deploy/deployconfig"
	"github.com/couchbaselabs/rancher-gitlab-deploy/utils/consolehelper"
	"github.com/spf13/cobra"
)

const modulePath = "github.com/couchbaselabs/rancher-gitlab-deploy"

// NewRootCmd builds the deploy command. It is a single command: every run
// performs exactly one upgrade.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rancher-gitlab-deploy",
		Short: "Performs an in service upgrade of a Rancher service",
		Long: `Performs an in service upgrade of the service specified on the command line.

Most options fall back to the variables GitLab CI and Rancher set up, so a
pipeline job usually only needs --cluster, --environment and --new-image.`,
		Version:       buildversion.GetVersion(modulePath),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			helper := &CmdHelper{cmd: cmd}
			return helper.Deploy(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML file with default options (env "+deployconfig.ENV_CONFIG_PATH+")")
	flags.String("rancher-url", "", "The URL for your Rancher server, eg: http://rancher:8000 (env "+deployconfig.ENV_RANCHER_URL+")")
	flags.String("rancher-key", "", "The environment or account API key (env "+deployconfig.ENV_RANCHER_ACCESS_KEY+")")
	flags.String("rancher-secret", "", "The secret for the access API key (env "+deployconfig.ENV_RANCHER_SECRET_KEY+")")
	flags.String("cluster", "", "The name of the cluster in Rancher")
	flags.String("environment", "", "The name of the environment (project) in the cluster")
	flags.String("stack", "", "The name of the stack (namespace) in Rancher, defaults to the GitLab group (env "+deployconfig.ENV_CI_PROJECT_NAMESPACE+")")
	flags.String("service", "", "The name of the service in Rancher to upgrade, defaults to the GitLab project (env "+deployconfig.ENV_CI_PROJECT_NAME+")")
	flags.String("new-image", "", "If specified, replace the image (and :tag) with this one during the upgrade")
	flags.Int("upgrade-timeout", deployconfig.DEFAULT_UPGRADE_TIMEOUT, "How long to wait, in seconds, for the upgrade to finish before exiting")
	flags.Bool("wait-for-upgrade-to-finish", true, "Wait for Rancher to finish the upgrade before this tool exits")
	flags.Bool("no-wait-for-upgrade-to-finish", false, "Exit as soon as the upgrade has been requested")
	flags.Bool("debug", true, "Enable HTTP debugging")
	flags.Bool("no-debug", false, "Disable HTTP debugging")

	return cmd
}

// Run executes root and prints whatever error stopped it, including flag
// and argument errors cobra returns before the command body runs.
func Run(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if err != nil {
		consolehelper.New(root.OutOrStdout()).Bail(err)
		return err
	}

	return nil
}

func Execute() {
	err := Run(context.Background(), NewRootCmd())
	if err != nil {
		os.Exit(1)
	}
}
