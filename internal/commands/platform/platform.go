package platform

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/wskops/wskctl/internal/commands/cmdutil"
	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/k8s/platform"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/poll"
	"github.com/wskops/wskctl/internal/ui"
)

const (
	PlatformHelp      = "Inspect the platform's Kubernetes deployment"
	PlatformHelpExtra = `Reads pod and node state straight from the cluster the platform runs on.
These commands need a kubeconfig, not the platform's API key.

Examples:
  wskctl platform health
  wskctl platform health --k8s-namespace whisk --wait --timeout 10m
  wskctl platform nodes --kubeconfig ~/.kube/config`
)

func Cmd(newK8s cmdutil.K8sFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "platform",
		Short: PlatformHelp,
		Long:  PlatformHelp + "\n\n" + PlatformHelpExtra,
	}

	kubeconfig := cmd.PersistentFlags().String("kubeconfig", "", "Path to kubeconfig file")

	cmd.AddCommand(
		healthCmd(newK8s, kubeconfig),
		nodesCmd(newK8s, kubeconfig),
	)

	return cmd
}

func healthCmd(newK8s cmdutil.K8sFunc, kubeconfig *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the platform's components are ready",
		Long: `Checks that every platform component has at least one pod and that all of
its pods are ready. Pods are matched by the app.kubernetes.io/component label.`,
		Args: cobra.NoArgs,
	}

	namespace := cmd.Flags().String("k8s-namespace", constants.DefaultPlatformNamespace, "Kubernetes namespace the platform is deployed to")
	components := cmd.Flags().StringSlice("component", constants.PlatformComponents, "Components that must be ready")
	wait := cmd.Flags().Bool("wait", false, "Wait for the platform to become healthy")
	timeout := cmd.Flags().Duration("timeout", constants.DefaultPlatformTimeout, "Timeout for --wait")
	interval := cmd.Flags().Duration("interval", constants.DefaultPlatformInterval, "Pause between checks for --wait")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger.Info("=== PLATFORM HEALTH ===")

		k8sClient, err := newK8s(*kubeconfig)
		if err != nil {
			return fmt.Errorf("creating k8s client: %w", err)
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if !*wait {
			status, err := platform.Check(ctx, k8sClient, *namespace, *components)
			if err != nil {
				return err
			}
			printHealth(out, status)
			if !status.Healthy() {
				return fmt.Errorf("platform in namespace %s is not healthy", *namespace)
			}
			return nil
		}

		active, err := platform.NamespaceIsActive(ctx, k8sClient, *namespace)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("namespace %s does not exist or is not active", *namespace)
		}

		budget := poll.Budget{Interval: *interval, TotalTimeout: *timeout}
		res, last := platform.WaitHealthy(ctx, k8sClient, *namespace, *components, budget)
		if last != nil {
			printHealth(out, last)
		}

		switch res.Kind() {
		case poll.KindFound:
			return nil
		case poll.KindError:
			return fmt.Errorf("waiting for platform: %s", res.Message())
		default:
			return fmt.Errorf("platform in namespace %s did not become healthy within %v", *namespace, *timeout)
		}
	}

	return cmd
}

func printHealth(w io.Writer, status *platform.Status) {
	ui.Println(w, "Namespace: %s", status.Namespace)
	for _, c := range status.Components {
		icon := constants.IconNotReady
		if c.Healthy() {
			icon = constants.IconReady
		}
		ui.Println(w, "%s %s (%d/%d ready)", icon, ui.Bold(c.Component), c.Ready, len(c.Pods))
		for _, pod := range c.Pods {
			podIcon := constants.IconNotReady
			if pod.Ready {
				podIcon = constants.IconReady
			}
			ui.Println(w, "  %s %-50s %s", podIcon, pod.Name, pod.Phase)
		}
	}

	ready, total := status.ReadyPods()
	ui.Println(w, "\nReady: %d/%d pods", ready, total)
}

func nodesCmd(newK8s cmdutil.K8sFunc, kubeconfig *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Check the cluster nodes",
		Long:  "Checks that every cluster node is ready and reports no pressure condition.",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger.Info("=== PLATFORM NODES ===")

		k8sClient, err := newK8s(*kubeconfig)
		if err != nil {
			return fmt.Errorf("creating k8s client: %w", err)
		}

		status, err := platform.CheckNodes(cmd.Context(), k8sClient)
		if err != nil {
			return fmt.Errorf("checking cluster status: %w", err)
		}

		out := cmd.OutOrStdout()
		unhealthy := 0
		for _, node := range status.Nodes {
			if node.Healthy {
				ui.Println(out, "%s %s", constants.IconReady, node.Name)
				continue
			}
			unhealthy++
			ui.Println(out, "%s %s", constants.IconNotReady, node.Name)
			for _, cond := range node.Conditions {
				if cond.Status == corev1.ConditionTrue && cond.Type != corev1.NodeReady {
					ui.Println(out, "    %s (%s)", cond.Type, cond.Reason)
				}
			}
		}
		ui.Println(out, "\nReady: %d/%d nodes", status.ReadyNodes, status.TotalNodes)

		if unhealthy > 0 {
			return fmt.Errorf("cluster is not healthy: %d of %d nodes have problems", unhealthy, status.TotalNodes)
		}

		logger.Info("Cluster is healthy")
		return nil
	}

	return cmd
}
