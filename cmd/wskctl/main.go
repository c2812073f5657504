package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wskops/wskctl/internal/commands/action"
	"github.com/wskops/wskctl/internal/commands/activation"
	"github.com/wskops/wskctl/internal/commands/platform"
	"github.com/wskops/wskctl/internal/commands/property"
	"github.com/wskops/wskctl/internal/commands/rule"
	"github.com/wskops/wskctl/internal/commands/trigger"
	"github.com/wskops/wskctl/internal/config"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/k8s/client"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/utils"
	"github.com/wskops/wskctl/internal/whisk"
)

const RootHelp = `wskctl manages the actions, triggers, rules and activations of a serverless
platform through its REST API, and waits for asynchronous results: rule state
changes, activation records and activation counts.

Connection properties come from ~/.wskctl.yaml, files given with --config,
the WSK_APIHOST, WSK_AUTH, WSK_NAMESPACE and WSK_INSECURE environment
variables and the global flags, later sources overriding earlier ones.`

func main() {
	code := RunClient()
	os.Exit(code)
}

func RunClient() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := RootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitCode(err)
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case whisk.IsNotFound(err):
		return constants.ExitCodeNotFound
	case whisk.IsNetwork(err):
		return constants.ExitCodeNetwork
	default:
		return constants.ExitCodeGeneral
	}
}

func RootCmd() *cobra.Command {
	return newRootCmd(os.Getenv, config.DefaultFiles)
}

func newRootCmd(getenv func(string) string, defaultFiles func() []string) *cobra.Command {
	var (
		logLevel    string
		configFiles []string
		overrides   config.Overrides
		insecure    bool
	)

	rootCmd := &cobra.Command{
		Use:               "wskctl",
		Short:             "Command line client for a serverless functions platform",
		Long:              RootHelp,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringArrayVar(&configFiles, "config", nil, "YAML property file, overrides ~/.wskctl.yaml (repeatable)")
	rootCmd.PersistentFlags().StringVar(&overrides.APIHost, "apihost", "", "Platform API host")
	rootCmd.PersistentFlags().StringVarP(&overrides.Auth, "auth", "u", "", "Authorization key <uuid>:<key>")
	rootCmd.PersistentFlags().StringVar(&overrides.Namespace, "namespace", "", "Namespace, defaults to the key's own")
	rootCmd.PersistentFlags().BoolVarP(&insecure, "insecure", "i", false, "Skip TLS certificate verification")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		logger.SetGlobal(log)
		logger.Debug("Logger initialized at level: %s", logLevel)

		for _, f := range configFiles {
			if !utils.IsYAMLFile(f) {
				return fmt.Errorf("config file %s must have a .yaml or .yml extension", f)
			}
		}
		return nil
	}

	resolve := func() (config.Config, error) {
		files := append(defaultFiles(), configFiles...)
		flags := overrides
		if rootCmd.PersistentFlags().Changed("insecure") {
			flags.Insecure = &insecure
		}
		return config.Load(files, getenv, flags)
	}

	newClient := func() (*whisk.Client, error) {
		cfg, err := resolve()
		if err != nil {
			return nil, err
		}
		return whisk.NewClient(cfg)
	}

	propertyFile := func() (string, error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("locating home directory: %w", err)
		}
		return filepath.Join(home, constants.DefaultConfigFile), nil
	}

	rootCmd.AddCommand(
		action.Cmd(newClient),
		activation.Cmd(newClient),
		rule.Cmd(newClient),
		trigger.Cmd(newClient),
		property.Cmd(resolve, propertyFile),
		platform.Cmd(client.New),
	)

	return rootCmd
}
