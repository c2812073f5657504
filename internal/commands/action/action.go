package action

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/utils"
	"github.com/wskops/wskctl/internal/whisk"
)

const (
	ActionHelp      = "Work with actions"
	ActionHelpExtra = `Actions are the functions the platform runs. Invoke them blocking to get
the result right away, or non-blocking to get an activation id and look the
result up later with "wskctl activation wait".

Examples:
  wskctl action create hello hello.js
  wskctl action invoke hello --param name=Bob --blocking --result
  echo '{"name":"Bob"}' | wskctl action invoke hello --file -`
)

// kindsByExtension maps source file extensions to the runtime's default kind.
var kindsByExtension = map[string]string{
	".js":    "nodejs:default",
	".py":    "python:default",
	".go":    "go:default",
	".java":  "java:default",
	".jar":   "java:default",
	".php":   "php:default",
	".rb":    "ruby:default",
	".swift": "swift:default",
}

func Cmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: ActionHelp,
		Long:  ActionHelp + "\n\n" + ActionHelpExtra,
	}

	cmd.AddCommand(
		insertCmd(newClient, false),
		insertCmd(newClient, true),
		invokeCmd(newClient),
		getCmd(newClient),
		deleteCmd(newClient),
		listCmd(newClient),
	)

	return cmd
}

func insertCmd(newClient cmdutil.ClientFunc, overwrite bool) *cobra.Command {
	use, short, done := "create", "Create a new action", "created"
	if overwrite {
		use, short, done = "update", "Update an existing action", "updated"
	}

	cmd := &cobra.Command{
		Use:   use + " <name> <source-file>",
		Short: short,
		Long: short + `. The runtime kind is derived from the file extension unless
--kind is given. Use - as source file to read the code from stdin.`,
		Args: cobra.ExactArgs(2),
	}

	kind := cmd.Flags().String("kind", "", "Runtime kind, e.g. nodejs:20")
	params := cmd.Flags().StringArrayP("param", "p", nil, "Default parameter as key=value (repeatable)")
	main := cmd.Flags().String("main", "", "Name of the entry function")
	timeout := cmd.Flags().Int("timeout", 0, "Time limit in milliseconds")
	memory := cmd.Flags().Int("memory", 0, "Memory limit in MB")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name, source := args[0], args[1]
		logger.Info("=== ACTION %s ===", use)

		code, err := utils.ReadFromFileOrStdin(source, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}

		k := *kind
		if k == "" {
			var ok bool
			if k, ok = kindsByExtension[filepath.Ext(source)]; !ok {
				return fmt.Errorf("cannot derive the kind of '%s', use --kind", source)
			}
		}

		paramMap, err := utils.ParseParams(*params)
		if err != nil {
			return err
		}

		codeStr := string(code)
		action := &whisk.Action{
			Name:       name,
			Exec:       &whisk.Exec{Kind: k, Code: &codeStr, Main: *main},
			Parameters: cmdutil.KeyValues(paramMap),
		}
		if *timeout > 0 || *memory > 0 {
			action.Limits = &whisk.Limits{}
			if *timeout > 0 {
				action.Limits.Timeout = timeout
			}
			if *memory > 0 {
				action.Limits.Memory = memory
			}
		}

		cl, err := newClient()
		if err != nil {
			return err
		}
		if _, err := cl.Actions.Insert(cmd.Context(), action, overwrite); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("%s action %s", done, ui.Bold(name)))
		return nil
	}

	return cmd
}

func invokeCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <name> [payload]",
		Short: "Invoke an action",
		Long: `Invokes an action with a JSON object payload, given directly, with --file
(- for stdin), and/or as --param pairs.`,
		Args: cobra.RangeArgs(1, 2),
	}

	payloadFile := cmd.Flags().StringP("file", "f", "", "JSON file with the payload, or - for stdin")
	params := cmd.Flags().StringArrayP("param", "p", nil, "Payload parameter as key=value (repeatable)")
	blocking := cmd.Flags().BoolP("blocking", "b", false, "Wait for the result")
	result := cmd.Flags().BoolP("result", "r", false, "Print only the result; implies --blocking")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := args[0]
		logger.Info("=== ACTION INVOKE ===")

		var input string
		if len(args) > 1 {
			input = args[1]
		}
		payload, err := utils.BuildPayload(input, *payloadFile, *params, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		block := *blocking || *result
		res, err := cl.Actions.Invoke(cmd.Context(), name, payload, block, *result)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		qualified, _ := whisk.FullyQualify(name, cl.Namespace())
		switch {
		case *result && !res.Accepted():
			return cmdutil.PrintJSON(out, res.Result)
		case res.Accepted():
			ui.Println(out, "%s", ui.OK("invoked %s with id %s", ui.Bold(qualified), res.ActivationID))
			if block {
				logger.Warn("Activation %s did not finish in time, look it up later", res.ActivationID)
			}
			return nil
		default:
			ui.Println(out, "%s", ui.OK("invoked %s with id %s", ui.Bold(qualified), res.ActivationID))
			return cmdutil.PrintJSON(out, res.Activation)
		}
	}

	return cmd
}

func getCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name> [field]",
		Short: "Get an action",
		Args:  cobra.RangeArgs(1, 2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		action, err := cl.Actions.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 2 {
			field, err := cmdutil.Field(action, args[1])
			if err != nil {
				return fmt.Errorf("Unable to get action '%s': %w", args[0], err)
			}
			ui.Println(out, "%s", ui.OK("got action %s, displaying field %s", ui.Bold(args[0]), args[1]))
			return cmdutil.PrintJSON(out, field)
		}

		ui.Println(out, "%s", ui.OK("got action %s", ui.Bold(args[0])))
		return cmdutil.PrintJSON(out, action)
	}

	return cmd
}

func deleteCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an action",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		if err := cl.Actions.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("deleted action %s", ui.Bold(args[0])))
		return nil
	}

	return cmd
}

func listCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [package]",
		Short: "List actions",
		Args:  cobra.MaximumNArgs(1),
	}

	skip := cmd.Flags().Int("skip", 0, "Exclude the first N actions from the result")
	limit := cmd.Flags().Int("limit", constants.DefaultListLimit, "Only return N actions")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *limit < 0 || *limit > constants.MaxListLimit {
			return fmt.Errorf("limit must be between 0 and %d", constants.MaxListLimit)
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		var pkg string
		if len(args) == 1 {
			pkg = args[0]
		}

		list, err := cl.Actions.List(cmd.Context(), pkg, whisk.ListOptions{Limit: *limit, Skip: *skip})
		if err != nil {
			return err
		}

		cmdutil.PrintList(cmd.OutOrStdout(), "actions", list, whisk.Action.ListString)
		return nil
	}

	return cmd
}
