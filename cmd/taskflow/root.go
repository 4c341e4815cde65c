package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/bootstrap"
	"github.com/kbukum/taskflow/config"
)

type rootOptions struct {
	configFile string
	envFile    string
	buildFile  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "taskflow",
		Short:        "Run build scripts in dependency order",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default: search ./taskflow.yml, ./config/config.yml, ...)")
	flags.StringVar(&opts.envFile, "env-file", "", "dotenv file with TASKFLOW_* overrides")
	flags.StringVarP(&opts.buildFile, "build-file", "f", "", "build file, overrides orchestrator.build_file")

	cmd.AddCommand(
		newRunCmd(opts),
		newPlanCmd(opts),
		newServeCmd(opts),
		newClearLogsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}
	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		return nil, err
	}
	if o.buildFile != "" {
		cfg.Orchestrator.BuildFile = o.buildFile
	}
	return cfg, nil
}

func (o *rootOptions) newApp() (*bootstrap.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.NewApp(cfg)
}
