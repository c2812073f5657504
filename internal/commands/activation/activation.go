package activation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	actwait "github.com/wskops/wskctl/internal/activation"
	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/ui"
	"github.com/wskops/wskctl/internal/whisk"
)

const (
	ActivationHelp      = "Work with activations"
	ActivationHelpExtra = `Every invocation of an action and every firing of a trigger leaves an
activation record. Records of non-blocking invocations appear with a delay;
"wait" retries the lookup until they are there, "poll" lists until an action
has been activated a given number of times.

Examples:
  wskctl activation wait 44794bd6aab74415b4e42a308d880e5b --timeout 1m
  wskctl activation poll hello --count 3 --since 5m
  wskctl activation logs 44794bd6aab74415b4e42a308d880e5b`
)

func Cmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activation",
		Short: ActivationHelp,
		Long:  ActivationHelp + "\n\n" + ActivationHelpExtra,
	}

	cmd.AddCommand(
		listCmd(newClient),
		getCmd(newClient),
		resultCmd(newClient),
		logsCmd(newClient),
		waitCmd(newClient),
		pollCmd(newClient),
	)

	return cmd
}

func listCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [action]",
		Short: "List activations, newest first",
		Args:  cobra.MaximumNArgs(1),
	}

	skip := cmd.Flags().Int("skip", 0, "Exclude the first N activations from the result")
	limit := cmd.Flags().Int("limit", constants.DefaultListLimit, "Only return N activations")
	since := cmd.Flags().Duration("since", 0, "Only activations started within this duration")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *limit < 0 || *limit > constants.MaxListLimit {
			return fmt.Errorf("limit must be between 0 and %d", constants.MaxListLimit)
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		opts := whisk.ActivationListOptions{Limit: *limit, Skip: *skip, Since: sinceTime(*since)}
		if len(args) == 1 {
			opts.Name = args[0]
		}

		list, err := cl.Activations.List(cmd.Context(), opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ui.Println(out, "%s", ui.Bold("activations"))
		for _, a := range list {
			_, _ = fmt.Fprint(out, a.ListString())
		}
		return nil
	}

	return cmd
}

func getCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id> [field]",
		Short: "Get an activation record",
		Args:  cobra.RangeArgs(1, 2),
	}

	summary := cmd.Flags().BoolP("summary", "s", false, "Summarize the activation")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := args[0]
		cl, err := newClient()
		if err != nil {
			return err
		}

		a, err := cl.Activations.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case *summary:
			printSummary(out, a)
			return nil
		case len(args) == 2:
			field, err := cmdutil.Field(a, args[1])
			if err != nil {
				return fmt.Errorf("Unable to get activation '%s': %w", id, err)
			}
			ui.Println(out, "%s", ui.OK("got activation %s, displaying field %s", ui.Bold(id), args[1]))
			return cmdutil.PrintJSON(out, field)
		default:
			ui.Println(out, "%s", ui.OK("got activation %s", ui.Bold(id)))
			return cmdutil.PrintJSON(out, a)
		}
	}

	return cmd
}

func printSummary(w io.Writer, a *whisk.Activation) {
	status := "unknown"
	if a.Response != nil {
		status = a.Response.Status
	}
	start := time.UnixMilli(a.Start).UTC().Format(time.RFC3339)

	ui.Println(w, "%s", ui.Bold(fmt.Sprintf("activation %s", a.ActivationID)))
	ui.Println(w, "   action:   /%s/%s", a.Namespace, a.Name)
	ui.Println(w, "   status:   %s", ui.Title(status))
	ui.Println(w, "   started:  %s", start)
	ui.Println(w, "   duration: %s", ui.Seconds(a.Duration))
	if a.Cause != "" {
		ui.Println(w, "   cause:    %s", a.Cause)
	}
}

func resultCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result <id>",
		Short: "Get the result of an activation",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		res, err := cl.Activations.Result(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return cmdutil.PrintJSON(cmd.OutOrStdout(), res.Result)
	}

	return cmd
}

func logsCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Get the log lines of an activation",
		Args:  cobra.ExactArgs(1),
	}

	strip := cmd.Flags().BoolP("strip", "r", false, "Strip timestamp and stream from each line")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cl, err := newClient()
		if err != nil {
			return err
		}

		logs, err := cl.Activations.Logs(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, line := range logs {
			if *strip {
				line = stripLogLine(line)
			}
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	}

	return cmd
}

// stripLogLine drops the "<timestamp> <stream>: " prefix the platform puts in
// front of every log line.
func stripLogLine(line string) string {
	_, rest, ok := strings.Cut(line, " ")
	if !ok {
		return line
	}
	if i := strings.Index(rest, ": "); i >= 0 {
		switch rest[:i] {
		case "stdout", "stderr":
			return rest[i+2:]
		}
	}
	return line
}

func waitCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait <id>...",
		Short: "Wait for activation records to appear",
		Long: `Looks up each activation until its record is there. A lookup answering
"not found" is retried, any other failure ends the wait for that id. All ids
are waited for at the same time.`,
		Args: cobra.MinimumNArgs(1),
	}

	initialWait := cmd.Flags().Duration("initial-wait", constants.DefaultActivationInitialWait, "Pause before the first lookup")
	interval := cmd.Flags().Duration("interval", constants.DefaultActivationPollPeriod, "Pause between lookups")
	timeout := cmd.Flags().Duration("timeout", constants.DefaultActivationTotalWait, "Total time to wait for each activation")
	result := cmd.Flags().BoolP("result", "r", false, "Print the result of each activation")
	progress := cmd.Flags().Bool("progress", false, "Show a spinner while waiting")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger.Info("=== ACTIVATION WAIT ===")
		cl, err := newClient()
		if err != nil {
			return err
		}

		spinner := ui.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("waiting for %d activation(s)", len(args)), *progress)
		w := actwait.NewWaiter(tickingStore{cl.Activations, spinner},
			actwait.WithInitialWait(*initialWait),
			actwait.WithInterval(*interval),
			actwait.WithTimeout(*timeout),
		)
		if err := w.Budget().Validate(); err != nil {
			return err
		}

		outcomes := w.WaitAll(cmd.Context(), args)
		spinner.Done()

		out := cmd.OutOrStdout()
		failed := 0
		for _, o := range outcomes {
			a, ok := o.Right()
			if !ok {
				failed++
				failure, _ := o.Left()
				ui.Println(out, "%s %s: %s", constants.IconNotReady, ui.Bold(o.ID), failure)
				continue
			}

			ui.Println(out, "%s %s %s (%s)", constants.IconReady, ui.Bold(o.ID), a.Name, statusOf(a))
			if *result && a.Response != nil {
				if err := cmdutil.PrintJSON(out, a.Response.Result); err != nil {
					return err
				}
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d activation(s) could not be retrieved", failed, len(outcomes))
		}
		return nil
	}

	return cmd
}

func statusOf(a *whisk.Activation) string {
	if a.Response == nil {
		return "unknown"
	}
	return a.Response.Status
}

// tickingStore advances the spinner on every lookup.
type tickingStore struct {
	actwait.Store
	spinner *ui.Spinner
}

func (s tickingStore) GetRaw(ctx context.Context, id string) (json.RawMessage, error) {
	s.spinner.Tick()
	return s.Store.GetRaw(ctx, id)
}

func pollCmd(newClient cmdutil.ClientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll <action>",
		Short: "Wait until an action has been activated a number of times",
		Long: `Lists the activations of an action until at least --count of them are
there, listing at most --retries+1 times. The ids are printed newest first.
Fails if fewer than --count activations showed up.`,
		Args: cobra.ExactArgs(1),
	}

	count := cmd.Flags().IntP("count", "n", 1, "Number of activations to wait for")
	retries := cmd.Flags().Int("retries", constants.DefaultPollRetries, "Listings to retry before giving up")
	interval := cmd.Flags().Duration("interval", constants.DefaultPollInterval, "Pause between listings")
	since := cmd.Flags().Duration("since", 0, "Only count activations started within this duration")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		name := args[0]
		logger.Info("=== ACTIVATION POLL ===")

		if *count < 0 || *count > constants.MaxListLimit {
			return fmt.Errorf("count must be between 0 and %d", constants.MaxListLimit)
		}

		cl, err := newClient()
		if err != nil {
			return err
		}

		w := actwait.NewWaiter(cl.Activations)
		p := w.WaitForActivations(cmd.Context(), name, *count, sinceTime(*since), *retries, *interval)

		out := cmd.OutOrStdout()
		ui.Println(out, "%s", ui.Bold("activations"))
		for _, id := range p.Items {
			_, _ = fmt.Fprintln(out, id)
		}

		if !p.Complete {
			msg := fmt.Sprintf("found %d of %d activation(s) of '%s' after %d attempt(s)", p.Len(), *count, name, p.Attempts)
			if p.Err != nil {
				return fmt.Errorf("%s: %w", msg, p.Err)
			}
			return errors.New(msg)
		}
		return nil
	}

	return cmd
}

func sinceTime(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-d)
}
