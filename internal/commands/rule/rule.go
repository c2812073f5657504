package rule

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/poll"
	"github.com/wskops/wskctl/internal/rules"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/whisk"
)

const (
	RuleHelp      = "Work with rules"
	RuleHelpExtra = `A rule binds a trigger to an action. While the rule is active, every
firing of the trigger invokes the action.

Examples:
  wskctl rule create hello-rule hello-trigger hello-action
  wskctl rule disable hello-rule --wait
  wskctl rule status hello-rule`
)

func Cmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: RuleHelp,
		Long:  RuleHelp + "\n\n" + RuleHelpExtra,
	}

	cmd.AddCommand(
		insertCmd(newClient, false),
		insertCmd(newClient, true),
		stateCmd(newClient, whisk.RuleActive),
		stateCmd(newClient, whisk.RuleInactive),
		statusCmd(newClient),
		getCmd(newClient),
		deleteCmd(newClient),
		listCmd(newClient),
	)

	return cmd
}

func insertCmd(newClient cmdutil.ClientFunc, overwrite bool) *cobra.Command {
	use, short, done := "create", "Create a new rule", "created"
	if overwrite {
		use, short, done = "update", "Update an existing rule", "updated"
	}

	cmd := &cobra.Command{
		Use:   use + " <name> <trigger> <action>",
		Short: short,
		Args:  cobra.ExactArgs(3),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger.Info("=== RULE %s ===", use)
		cl, err := newClient()
		if err != nil {
			return err
		}

		trigger, err := whisk.FullyQualify(args[1], cl.Namespace())
		if err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
		action, err := whisk.FullyQualify(args[2], cl.Namespace())
		if err != nil {
			return fmt.Errorf("action: %w", err)
		}

		rule := &whisk.Rule{Name: args[0], Trigger: trigger, Action: action}
		if _, err := cl.Rules.Insert(cmd.Context(), rule, overwrite); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("%s rule %s", done, ui.Bold(args[0])))
		return nil
	}

	return cmd
}

func stateCmd(newClient cmdutil.ClientFunc, state whisk.RuleState) *cobra.Command {
	verb := state.Verb()

	cmd := &cobra.Command{
		Use:   verb + " <name>",
		Short: fmt.Sprintf("%s a rule", ui.Title(verb)),
		Long: fmt.Sprintf(`%s a rule. The request is sent once. With --wait the command then
polls the rule until it reports %s or the timeout elapses.`, ui.Title(verb), state),
		Args: cobra.ExactArgs(1),
	}

	wait := cmd.Flags().Bool("wait", false, "Wait until the rule reports the new state")
	timeout := cmd.Flags().Duration("timeout", constants.DefaultRuleStateTimeout, "Timeout for --wait")
	interval := cmd.Flags().Duration("interval", constants.DefaultRuleStateInterval, "Pause between status checks for --wait")
	progress := cmd.Flags().Bool("progress", false, "Show a spinner while waiting")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := args[0]
		logger.Info("=== RULE %s ===", verb)

		cl, err := newClient()
		if err != nil {
			return err
		}

		if _, err := cl.Rules.SetState(cmd.Context(), name, state); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		ui.Println(out, "%s", ui.OK("%sd rule %s", verb, ui.Bold(name)))

		if !*wait {
			return nil
		}

		spinner := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("waiting for rule %s", name), *progress)
		budget := poll.Budget{Interval: *interval, TotalTimeout: *timeout}
		res := rules.WaitForState(cmd.Context(), tickingGetter{cl.Rules, spinner}, name, state, budget)
		spinner.Done()

		switch res.Kind() {
		case poll.KindFound:
			ui.Println(out, "%s", ui.OK("rule %s is %s", ui.Bold(name), state))
			return nil
		case poll.KindError:
			return fmt.Errorf("waiting for rule '%s': %s", name, res.Message())
		default:
			return fmt.Errorf("rule '%s' did not become %s within %v", name, state, *timeout)
		}
	}

	return cmd
}

// tickingGetter advances the spinner on every status check.
type tickingGetter struct {
	rules.StateGetter
	spinner *ui.Spinner
}

func (g tickingGetter) GetState(ctx context.Context, name string) (whisk.RuleState, error) {
	g.spinner.Tick()
	return g.StateGetter.GetState(ctx, name)
}

func statusCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Get the status of a rule",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		state, err := cl.Rules.GetState(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("rule %s is %s", ui.Bold(args[0]), state))
		return nil
	}

	return cmd
}

func getCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name> [field]",
		Short: "Get a rule",
		Long: `Prints the rule as JSON. With a field name only that field is printed,
with --summary a short description.`,
		Args: cobra.RangeArgs(1, 2),
	}

	summary := cmd.Flags().BoolP("summary", "s", false, "Summarize the rule")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		rule, err := cl.Rules.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case *summary:
			printSummary(out, rule)
			return nil
		case len(args) == 2:
			field, err := cmdutil.Field(rule, args[1])
			if err != nil {
				return fmt.Errorf("Unable to get rule '%s': %w", args[0], err)
			}
			ui.Println(out, "%s", ui.OK("got rule %s, displaying field %s", ui.Bold(args[0]), args[1]))
			return cmdutil.PrintJSON(out, field)
		default:
			ui.Println(out, "%s", ui.OK("got rule %s", ui.Bold(args[0])))
			return cmdutil.PrintJSON(out, rule)
		}
	}

	return cmd
}

func printSummary(w io.Writer, rule *whisk.Rule) {
	ui.Println(w, "%s", ui.Bold(fmt.Sprintf("rule /%s/%s", rule.Namespace, rule.Name)))
	ui.Println(w, "   (status: %s)", ui.Title(rule.Status))
	ui.Println(w, "   trigger: %s", rule.TriggerName())
	ui.Println(w, "   action:  %s", rule.ActionName())
}

func deleteCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
	}

	disable := cmd.Flags().Bool("disable", false, "Disable the rule before deleting it")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cl, err := newClient()
		if err != nil {
			return err
		}

		if *disable {
			if _, err := cl.Rules.SetState(cmd.Context(), name, whisk.RuleInactive); err != nil {
				return err
			}
		}

		if err := cl.Rules.Delete(cmd.Context(), name); err != nil {
			return err
		}

		ui.Println(cmd.OutOrStdout(), "%s", ui.OK("deleted rule %s", ui.Bold(name)))
		return nil
	}

	return cmd
}

func listCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [namespace]",
		Short: "List rules",
		Args:  cobra.MaximumNArgs(1),
	}

	skip := cmd.Flags().Int("skip", 0, "Exclude the first N rules from the result")
	limit := cmd.Flags().Int("limit", constants.DefaultListLimit, "Only return N rules")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *limit < 0 || *limit > constants.MaxListLimit {
			return fmt.Errorf("limit must be between 0 and %d", constants.MaxListLimit)
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			q, err := whisk.ParseQualifiedName(args[0])
			if err != nil {
				return err
			}
			ns := q.Namespace
			if ns == "" {
				ns = q.Entity
			}
			if cl, err = cl.WithNamespace(ns); err != nil {
				return err
			}
		}

		list, err := cl.Rules.List(cmd.Context(), whisk.ListOptions{Limit: *limit, Skip: *skip})
		if err != nil {
			return err
		}

		cmdutil.PrintList(cmd.OutOrStdout(), "rules", list, whisk.Rule.ListString)
		return nil
	}

	return cmd
}
