package cmd

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/couchbaselabs/rancher-gitlab-deploy/deployconfig"
	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"github.com/couchbaselabs/rancher-gitlab-deploy/upgradecontrol"
	"github.com/couchbaselabs/rancher-gitlab-deploy/utils/consolehelper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type CmdHelper struct {
	cmd *cobra.Command

	logger  *zap.Logger
	console *consolehelper.Console
	config  *deployconfig.Config
}

func (h *CmdHelper) GetConsole() *consolehelper.Console {
	if h.console == nil {
		h.console = consolehelper.New(h.cmd.OutOrStdout())
	}

	return h.console
}

// GetLogger must only be called once the config is loaded, since the log
// level follows the debug option. Logs go to the command's error stream so
// stdout only ever carries console messages.
func (h *CmdHelper) GetLogger() *zap.Logger {
	if h.logger == nil {
		debug := h.config != nil && h.config.Debug

		logConfig := zap.NewDevelopmentConfig()
		if !debug {
			logConfig.Level.SetLevel(zap.InfoLevel)
			logConfig.DisableCaller = true
		}

		sink := zapcore.Lock(zapcore.AddSync(h.cmd.ErrOrStderr()))
		logger, err := logConfig.Build(zap.WrapCore(func(zapcore.Core) zapcore.Core {
			return zapcore.NewCore(
				zapcore.NewConsoleEncoder(logConfig.EncoderConfig),
				sink,
				logConfig.Level)
		}))
		if err != nil {
			log.Fatalf("failed to initialize logger: %s", err)
		}

		h.logger = logger
	}

	return h.logger
}

// GetConfig layers defaults, the optional config file, the environment and
// explicitly passed flags, in that order.
func (h *CmdHelper) GetConfig() (*deployconfig.Config, error) {
	if h.config != nil {
		return h.config, nil
	}

	flags := h.cmd.Flags()

	configPath, _ := flags.GetString("config")
	if configPath == "" {
		configPath = os.Getenv(deployconfig.ENV_CONFIG_PATH)
	}

	config := deployconfig.Default()
	if configPath != "" {
		fileConfig, err := deployconfig.LoadFile(configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
		}
		config = fileConfig
	}

	config.ApplyEnv(os.LookupEnv)

	stringFlags := map[string]*string{
		"rancher-url":    &config.Rancher.URL,
		"rancher-key":    &config.Rancher.AccessKey,
		"rancher-secret": &config.Rancher.SecretKey,
		"cluster":        &config.Target.Cluster,
		"environment":    &config.Target.Environment,
		"stack":          &config.Target.Stack,
		"service":        &config.Target.Service,
		"new-image":      &config.Upgrade.NewImage,
	}
	for name, dest := range stringFlags {
		if flags.Changed(name) {
			*dest, _ = flags.GetString(name)
		}
	}

	if flags.Changed("upgrade-timeout") {
		config.Upgrade.Timeout, _ = flags.GetInt("upgrade-timeout")
	}

	// the negative form of a flag pair wins when both are given
	config.Upgrade.Wait = boolFlagPair(h.cmd, "wait-for-upgrade-to-finish", "no-wait-for-upgrade-to-finish", config.Upgrade.Wait)
	config.Debug = boolFlagPair(h.cmd, "debug", "no-debug", config.Debug)

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	h.config = config
	return config, nil
}

func boolFlagPair(cmd *cobra.Command, positive, negative string, current bool) bool {
	flags := cmd.Flags()

	if flags.Changed(positive) {
		current, _ = flags.GetBool(positive)
	}

	if flags.Changed(negative) {
		if disabled, _ := flags.GetBool(negative); disabled {
			current = false
		}
	}

	return current
}

func (h *CmdHelper) GetClient() (*rancherrest.Client, error) {
	config, err := h.GetConfig()
	if err != nil {
		return nil, err
	}

	endpoint, err := config.APIEndpoint()
	if err != nil {
		return nil, err
	}

	return rancherrest.NewClient(&rancherrest.ClientOptions{
		Logger:    h.GetLogger(),
		Endpoint:  endpoint,
		AccessKey: config.Rancher.AccessKey,
		SecretKey: config.Rancher.SecretKey,
		Debug:     config.Debug,
	})
}

func (h *CmdHelper) Deploy(ctx context.Context) error {
	config, err := h.GetConfig()
	if err != nil {
		return err
	}

	logger := h.GetLogger()
	defer func() { _ = logger.Sync() }()

	client, err := h.GetClient()
	if err != nil {
		return errors.Wrap(err, "failed to create rancher client")
	}
	defer func() { _ = client.Close() }()

	logger.Debug("client initialized",
		zap.String("endpoint", client.Endpoint()),
		zap.String("requestId", client.RequestID()))

	ctrl := upgradecontrol.NewController(&upgradecontrol.ControllerOptions{
		Logger:       logger,
		Client:       client,
		Console:      h.GetConsole(),
		Host:         config.Host(),
		PollInterval: time.Duration(config.Upgrade.PollInterval),
	})

	return ctrl.Run(ctx, upgradecontrol.Request{
		Target: upgradecontrol.Target{
			Cluster:     config.Target.Cluster,
			Environment: config.Target.Environment,
			Stack:       config.Target.Stack,
			Service:     config.Target.Service,
		},
		NewImage: config.Upgrade.NewImage,
		Wait:     config.Upgrade.Wait,
		Timeout:  time.Duration(config.Upgrade.Timeout) * time.Second,
	})
}
