package deployconfig

import "time"

const (
	DEFAULT_UPGRADE_TIMEOUT = 5 * 60
	DEFAULT_POLL_INTERVAL   = 2 * time.Second
)

const (
	ENV_CONFIG_PATH          = "RANCHER_DEPLOY_CONFIG"
	ENV_RANCHER_URL          = "RANCHER_URL"
	ENV_RANCHER_ACCESS_KEY   = "RANCHER_ACCESS_KEY"
	ENV_RANCHER_SECRET_KEY   = "RANCHER_SECRET_KEY"
	ENV_CI_PROJECT_NAMESPACE = "CI_PROJECT_NAMESPACE"
	ENV_CI_PROJECT_NAME      = "CI_PROJECT_NAME"
)
