package platform

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/wskops/wskctl/internal/constants"
	"github.com/wskops/wskctl/internal/k8s/client"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func run(t *testing.T, objects []runtime.Object, args ...string) (string, error) {
	t.Helper()

	newK8s := func(string) (*client.Client, error) {
		return client.NewForClientset(fake.NewClientset(objects...)), nil
	}

	cmd := Cmd(newK8s)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return ansi.ReplaceAllString(out.String(), ""), err
}

func pod(name, component string, ready bool) *corev1.Pod {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "openwhisk",
			Labels:    map[string]string{constants.PlatformComponentLabel: component},
		},
		Status: corev1.PodStatus{
			Phase:      corev1.PodRunning,
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: status}},
		},
	}
}

func namespace(name string) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status:     corev1.NamespaceStatus{Phase: corev1.NamespaceActive},
	}
}

func TestHealthy(t *testing.T) {
	objects := []runtime.Object{
		pod("controller-0", "controller", true),
		pod("invoker-0", "invoker", true),
	}

	out, err := run(t, objects, "health", "--kubeconfig", "/tmp/kubeconfig.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Namespace: openwhisk",
		"✓ controller (1/1 ready)",
		"✓ invoker (1/1 ready)",
		"Ready: 2/2 pods",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestUnhealthy(t *testing.T) {
	objects := []runtime.Object{
		pod("controller-0", "controller", true),
		pod("invoker-0", "invoker", false),
	}

	out, err := run(t, objects, "health")
	if err == nil {
		t.Fatal("expected an error for an unhealthy platform")
	}
	if !strings.Contains(out, "✗ invoker (0/1 ready)") {
		t.Errorf("output misses the unhealthy invoker:\n%s", out)
	}

	// only checking the controller makes it healthy
	if _, err := run(t, objects, "health", "--component", "controller"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHealthWait(t *testing.T) {
	objects := []runtime.Object{
		namespace("openwhisk"),
		pod("controller-0", "controller", true),
		pod("invoker-0", "invoker", true),
	}

	if _, err := run(t, objects, "health", "--wait", "--interval", "5ms", "--timeout", "1s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := run(t, objects, "health", "--wait", "--k8s-namespace", "missing", "--timeout", "50ms")
	if err == nil || !strings.Contains(err.Error(), "does not exist or is not active") {
		t.Errorf("expected inactive namespace error, got %v", err)
	}

	objects = []runtime.Object{namespace("openwhisk"), pod("controller-0", "controller", false)}
	out, err := run(t, objects, "health", "--wait", "--component", "controller", "--interval", "5ms", "--timeout", "50ms")
	if err == nil || !strings.Contains(err.Error(), "did not become healthy") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if !strings.Contains(out, "Ready: 0/1 pods") {
		t.Errorf("expected the last status to be printed:\n%s", out)
	}
}

func TestK8sClientError(t *testing.T) {
	cmd := Cmd(func(string) (*client.Client, error) { return nil, errors.New("no cluster") })
	cmd.SetArgs([]string{"nodes"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no cluster") {
		t.Errorf("expected client error, got %v", err)
	}
}

func TestNodes(t *testing.T) {
	ready := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
		Status: corev1.NodeStatus{Conditions: []corev1.NodeCondition{
			{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
		}},
	}
	pressured := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: "node-2"},
		Status: corev1.NodeStatus{Conditions: []corev1.NodeCondition{
			{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			{Type: corev1.NodeDiskPressure, Status: corev1.ConditionTrue, Reason: "KubeletHasDiskPressure"},
		}},
	}

	out, err := run(t, []runtime.Object{ready}, "nodes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "✓ node-1\n\nReady: 1/1 nodes\n" {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, []runtime.Object{ready, pressured}, "nodes")
	if err == nil {
		t.Fatal("expected an error for a node under pressure")
	}
	if !strings.Contains(out, "✗ node-2\n    DiskPressure (KubeletHasDiskPressure)\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Ready: 2/2 nodes") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
