// Package client connects to the Kubernetes cluster hosting the platform. The
// platform package reads controller and invoker pods and cluster nodes through
// it, and tests wrap a fake clientset with NewForClientset.
package client

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/wskops/wskctl/internal/logger"
)

// Client holds the clientset used by the platform health and node checks.
type Client struct {
	clientset kubernetes.Interface
	config    *rest.Config
}

// New creates a Kubernetes client for the cluster the platform is deployed
// to. Inside a pod the in-cluster configuration wins; otherwise kubeconfigPath
// is used, defaulting to ~/.kube/config.
func New(kubeconfigPath string) (*Client, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		if kubeconfigPath == "" {
			kubeconfigPath = filepath.Join(os.Getenv("HOME"), ".kube", "config")
		}
		logger.Debug("Not running in a cluster, using kubeconfig %s", kubeconfigPath)
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create k8s config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create k8s client: %w", err)
	}

	return &Client{
		clientset: clientset,
		config:    config,
	}, nil
}

// NewForClientset wraps an existing clientset, e.g. a fake one in tests.
func NewForClientset(cs kubernetes.Interface) *Client {
	return &Client{clientset: cs}
}

// Clientset returns the underlying Kubernetes clientset
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// Config returns the rest config, nil for a wrapped clientset.
func (c *Client) Config() *rest.Config {
	return c.config
}
