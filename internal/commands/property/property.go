package property

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wskops/wskctl/internal/config"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/utils"
)

const (
	PropertyHelp      = "Work with the client's connection properties"
	PropertyHelpExtra = `Properties are read from the property file in the home directory, the
files given with --config, the WSK_* environment variables and the global
flags, in that order. "set" and "unset" edit the property file.

Examples:
  wskctl property set --apihost https://whisk.example.com --auth "$KEY"
  wskctl property get
  wskctl property unset namespace`
)

// Resolver returns the effective connection properties.
type Resolver func() (config.Config, error)

// PathFunc returns the property file "set" and "unset" edit.
type PathFunc func() (string, error)

var names = []string{"apihost", "apiversion", "auth", "namespace", "insecure"}

func Cmd(resolve Resolver, path PathFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: PropertyHelp,
		Long:  PropertyHelp + "\n\n" + PropertyHelpExtra,
	}

	cmd.AddCommand(
		getCmd(resolve),
		setCmd(path),
		unsetCmd(path),
	)

	return cmd
}

func getCmd(resolve Resolver) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "get [property]...",
		Short:     "Show the effective properties",
		ValidArgs: names,
		Args:      cobra.OnlyValidArgs,
	}

	showSecret := cmd.Flags().Bool("show-secret", false, "Print the authorization key unredacted")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := resolve()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			args = names
		}

		values := map[string]string{
			"apihost":    cfg.APIHost,
			"apiversion": cfg.APIVersion,
			"auth":       cfg.Auth,
			"namespace":  cfg.Namespace,
			"insecure":   strconv.FormatBool(cfg.Insecure),
		}
		if !*showSecret {
			values["auth"] = redact(cfg.Auth)
		}

		printProperties(cmd.OutOrStdout(), args, values)
		return nil
	}

	return cmd
}

func printProperties(w io.Writer, keys []string, values map[string]string) {
	for _, k := range keys {
		ui.Println(w, "%s%s %s", ui.Bold(k), strings.Repeat(" ", max(12-len(k), 0)), values[k])
	}
}

// redact keeps the uuid of a "<uuid>:<key>" authorization key.
func redact(auth string) string {
	if auth == "" {
		return ""
	}
	user, _, ok := strings.Cut(auth, ":")
	if !ok {
		return "****"
	}
	return user + ":****"
}

func setCmd(path PathFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store properties in the property file",
		Args:  cobra.NoArgs,
	}

	var set config.Config
	cmd.Flags().StringVar(&set.APIHost, "apihost", "", "Platform API host")
	cmd.Flags().StringVar(&set.APIVersion, "apiversion", "", "Platform API version")
	cmd.Flags().StringVar(&set.Auth, "auth", "", "Authorization key <uuid>:<key>")
	cmd.Flags().StringVar(&set.Namespace, "namespace", "", "Namespace")
	cmd.Flags().BoolVar(&set.Insecure, "insecure", false, "Skip TLS verification")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().NFlag() == 0 {
			return fmt.Errorf("no property given, see --help")
		}
		if set.Auth != "" {
			if _, _, err := set.BasicAuth(); err != nil {
				return err
			}
		}

		filename, current, err := readPropertyFile(path)
		if err != nil {
			return err
		}

		if err := mergo.Merge(&current, set, mergo.WithOverride); err != nil {
			return fmt.Errorf("merging properties: %w", err)
		}
		if cmd.Flags().Changed("insecure") {
			current.Insecure = set.Insecure
		}

		if err := config.WriteFile(filename, current); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		cmd.Flags().Visit(func(f *pflag.Flag) {
			ui.Println(out, "%s", ui.OK("%s set", f.Name))
		})
		return nil
	}

	return cmd
}

func unsetCmd(path PathFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "unset <property>...",
		Short:     "Remove properties from the property file",
		ValidArgs: names,
		Args:      cobra.MatchAll(cobra.MinimumNArgs(1), cobra.OnlyValidArgs),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		filename, current, err := readPropertyFile(path)
		if err != nil {
			return err
		}

		for _, name := range args {
			switch name {
			case "apihost":
				current.APIHost = ""
			case "apiversion":
				current.APIVersion = ""
			case "auth":
				current.Auth = ""
			case "namespace":
				current.Namespace = ""
			case "insecure":
				current.Insecure = false
			}
		}

		if err := config.WriteFile(filename, current); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range args {
			ui.Println(out, "%s", ui.OK("%s unset", name))
		}
		return nil
	}

	return cmd
}

// readPropertyFile returns the property file and its content, empty if the
// file does not exist yet.
func readPropertyFile(path PathFunc) (string, config.Config, error) {
	filename, err := path()
	if err != nil {
		return "", config.Config{}, err
	}

	exists, err := utils.FileExists(filename)
	if err != nil {
		return "", config.Config{}, err
	}
	if !exists {
		logger.Debug("Property file %s does not exist yet", filename)
		return filename, config.Config{}, nil
	}

	cfg, err := config.ReadFile(filename)
	if err != nil {
		return "", config.Config{}, err
	}
	return filename, cfg, nil
}
