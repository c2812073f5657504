package platform

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/wskops/wskctl/internal/k8s/client"
)

type NodeStatus struct {
	Name       string
	Ready      bool
	Healthy    bool
	Conditions []corev1.NodeCondition
}

type ClusterStatus struct {
	TotalNodes int
	ReadyNodes int
	Nodes      []NodeStatus
}

// CheckNodes reports the readiness of all cluster nodes.
func CheckNodes(ctx context.Context, k8sClient *client.Client) (*ClusterStatus, error) {
	nodes, err := k8sClient.Clientset().CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	status := &ClusterStatus{
		TotalNodes: len(nodes.Items),
		Nodes:      make([]NodeStatus, 0, len(nodes.Items)),
	}

	for _, node := range nodes.Items {
		nodeStatus := NodeStatus{
			Name:       node.Name,
			Ready:      isNodeReady(&node),
			Healthy:    isNodeHealthy(&node),
			Conditions: node.Status.Conditions,
		}

		if nodeStatus.Ready {
			status.ReadyNodes++
		}

		status.Nodes = append(status.Nodes, nodeStatus)
	}

	return status, nil
}

func isNodeReady(node *corev1.Node) bool {
	for _, condition := range node.Status.Conditions {
		if condition.Type == corev1.NodeReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

// isNodeHealthy requires a ready node without pressure conditions.
func isNodeHealthy(node *corev1.Node) bool {
	if !isNodeReady(node) {
		return false
	}

	pressureTypes := []corev1.NodeConditionType{
		corev1.NodeMemoryPressure,
		corev1.NodeDiskPressure,
		corev1.NodePIDPressure,
		corev1.NodeNetworkUnavailable,
	}

	for _, condition := range node.Status.Conditions {
		for _, pressureType := range pressureTypes {
			if condition.Type == pressureType && condition.Status == corev1.ConditionTrue {
				return false
			}
		}
	}
	return true
}
