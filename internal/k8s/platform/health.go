// Package platform inspects the Kubernetes deployment of the platform: the
// pods of its components and the nodes they run on.
package platform

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/k8s/client"
	"github.com/wskops/wskctl/internal/logger"
	"github.com/wskops/wskctl/internal/poll"
)

type PodStatus struct {
	Name  string
	Phase corev1.PodPhase
	Ready bool
}

// ComponentStatus holds the pods labelled with one component.
type ComponentStatus struct {
	Component string
	Pods      []PodStatus
	Ready     int
}

// Healthy requires at least one pod, all of them ready.
func (c ComponentStatus) Healthy() bool {
	return len(c.Pods) > 0 && c.Ready == len(c.Pods)
}

type Status struct {
	Namespace  string
	Components []ComponentStatus
}

// Healthy reports whether every component is healthy.
func (s *Status) Healthy() bool {
	if len(s.Components) == 0 {
		return false
	}
	for _, c := range s.Components {
		if !c.Healthy() {
			return false
		}
	}
	return true
}

// ReadyPods returns the ready and total pod counts over all components.
func (s *Status) ReadyPods() (ready, total int) {
	for _, c := range s.Components {
		ready += c.Ready
		total += len(c.Pods)
	}
	return ready, total
}

// Check lists the pods of each component in namespace. Pods are selected by
// the app.kubernetes.io/component label.
func Check(ctx context.Context, k8sClient *client.Client, namespace string, components []string) (*Status, error) {
	status := &Status{Namespace: namespace}

	for _, component := range components {
		selector := labels.SelectorFromSet(labels.Set{constants.PlatformComponentLabel: component}).String()
		pods, err := k8sClient.Clientset().CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
		if err != nil {
			return nil, fmt.Errorf("listing %s pods: %w", component, err)
		}

		cs := ComponentStatus{Component: component, Pods: make([]PodStatus, 0, len(pods.Items))}
		for _, pod := range pods.Items {
			ready := isPodReady(&pod)
			if ready {
				cs.Ready++
			}
			cs.Pods = append(cs.Pods, PodStatus{Name: pod.Name, Phase: pod.Status.Phase, Ready: ready})
		}
		logger.Debug("Component %s: %d/%d pods ready", component, cs.Ready, len(cs.Pods))
		status.Components = append(status.Components, cs)
	}

	return status, nil
}

// WaitHealthy checks the components until all are healthy or the budget runs
// out. Failed listings are logged and retried. The last observed status is
// returned with the result, nil if no listing succeeded.
func WaitHealthy(ctx context.Context, k8sClient *client.Client, namespace string, components []string, budget poll.Budget) (poll.Result[*Status], *Status) {
	logger.Info("Waiting for platform in %s to become healthy (timeout: %v)", namespace, budget.TotalTimeout)

	var last *Status
	res := poll.Wait(ctx, budget, func(ctx context.Context) poll.Result[*Status] {
		status, err := Check(ctx, k8sClient, namespace, components)
		if err != nil {
			logger.Debug("Error checking health: %v", err)
			return poll.NotFound[*Status]()
		}
		last = status

		ready, total := status.ReadyPods()
		logger.Debug("Health check: %d/%d pods ready", ready, total)

		if status.Healthy() {
			logger.Info("Platform is healthy!")
			return poll.Found(status)
		}
		return poll.NotFound[*Status]()
	})

	return res, last
}

// NamespaceIsActive checks if a namespace exists and is active
func NamespaceIsActive(ctx context.Context, k8sClient *client.Client, namespace string) (bool, error) {
	ns, err := k8sClient.Clientset().CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("getting namespace: %w", err)
	}

	return ns.Status.Phase == corev1.NamespaceActive, nil
}

func isPodReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}
