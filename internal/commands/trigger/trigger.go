package trigger

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/utils"
	"github.com/wskops/wskctl/internal/whisk"
)

const (
	TriggerHelp      = "Work with triggers"
	TriggerHelpExtra = `A trigger is a named channel for events. Firing it invokes the actions of
all active rules bound to it; each of those invocations is recorded as an
activation caused by the trigger's own activation.

Examples:
  wskctl trigger create hello-trigger --param source=cron
  wskctl trigger fire hello-trigger '{"name":"Bob"}'`
)

func Cmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: TriggerHelp,
		Long:  TriggerHelp + "\n\n" + TriggerHelpExtra,
	}

	cmd.AddCommand(
		insertCmd(newClient, false),
		insertCmd(newClient, true),
		getCmd(newClient),
		deleteCmd(newClient),
		fireCmd(newClient),
	)

	return cmd
}

func insertCmd(newClient cmdutil.ClientFunc, overwrite bool) *cobra.Command {
	use, short, done := "create", "Create a new trigger", "created"
	if overwrite {
		use, short, done = "update", "Update an existing trigger", "updated"
	}

	cmd := &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}

	params := cmd.Flags().StringArrayP("param", "p", nil, "Default parameter as key=value (repeatable)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger.Info("=== TRIGGER %s ===", use)

		paramMap, err := utils.ParseParams(*params)
		if err != nil {
			return err
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		trigger := &whisk.Trigger{Name: args[0], Parameters: cmdutil.KeyValues(paramMap)}
		if _, err := cl.Triggers.Insert(cmd.Context(), trigger, overwrite); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("%s trigger %s", done, ui.Bold(args[0])))
		return nil
	}

	return cmd
}

func getCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Get a trigger",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		trigger, err := cl.Triggers.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ui.Println(out, "%s", ui.OK("got trigger %s", ui.Bold(args[0])))
		return cmdutil.PrintJSON(out, trigger)
	}

	return cmd
}

func deleteCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a trigger",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		if err := cl.Triggers.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("deleted trigger %s", ui.Bold(args[0])))
		return nil
	}

	return cmd
}

func fireCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fire <name> [payload]",
		Short: "Fire a trigger",
		Long: `Fires a trigger with a JSON object payload, given directly, with --file
(- for stdin), and/or as --param pairs. Prints the id of the trigger's
activation; the activations of the fired actions name it as their cause.`,
		Args: cobra.RangeArgs(1, 2),
	}

	payloadFile := cmd.Flags().StringP("file", "f", "", "JSON file with the payload, or - for stdin")
	params := cmd.Flags().StringArrayP("param", "p", nil, "Payload parameter as key=value (repeatable)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := args[0]
		logger.Info("=== TRIGGER FIRE ===")

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

		id, err := cl.Triggers.Fire(cmd.Context(), name, payload)
		if err != nil {
			return err
		}

		qualified, _ := whisk.FullyQualify(name, cl.Namespace())
		out := cmd.OutOrStdout()
		if id == "" {
			ui.Println(out, "%s", ui.OK("triggered %s, no active rule fired", ui.Bold(qualified)))
			return nil
		}
		ui.Println(out, "%s", ui.OK("triggered %s with id %s", ui.Bold(qualified), id))
		return nil
	}

	return cmd
}
