package upgradecontrol_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"github.com/couchbaselabs/rancher-gitlab-deploy/upgradecontrol"
	"github.com/couchbaselabs/rancher-gitlab-deploy/utils/consolehelper"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSelfLink = "https://rancher.example.com/v3/project/c-x1y2z:p-abcde/workloads/deployment:web:frontend"

var errInjected = errors.New("injected failure")

// fakeClient serves a fixed Rancher inventory and records every call made.
type fakeClient struct {
	clusters   []*rancherrest.Cluster
	projects   map[string][]*rancherrest.Project
	namespaces map[string][]*rancherrest.Namespace
	workloads  map[string][]*rancherrest.Workload

	// pollStates are returned by successive GetWorkload calls, the last
	// one repeating.
	pollStates []string

	failOn string

	calls   []string
	updates []*rancherrest.Workload
}

func (f *fakeClient) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn == call {
		return errInjected
	}
	return nil
}

func (f *fakeClient) ListClusters(ctx context.Context) ([]*rancherrest.Cluster, error) {
	if err := f.record("ListClusters"); err != nil {
		return nil, err
	}
	return f.clusters, nil
}

func (f *fakeClient) ListProjects(ctx context.Context, clusterID string) ([]*rancherrest.Project, error) {
	if err := f.record("ListProjects"); err != nil {
		return nil, err
	}
	return f.projects[clusterID], nil
}

func (f *fakeClient) ListNamespaces(ctx context.Context, clusterID, projectID string) ([]*rancherrest.Namespace, error) {
	if err := f.record("ListNamespaces"); err != nil {
		return nil, err
	}
	return f.namespaces[clusterID+"/"+projectID], nil
}

func (f *fakeClient) ListWorkloads(ctx context.Context, projectID, namespaceID string) ([]*rancherrest.Workload, error) {
	if err := f.record("ListWorkloads"); err != nil {
		return nil, err
	}
	return f.workloads[projectID+"/"+namespaceID], nil
}

func (f *fakeClient) GetWorkload(ctx context.Context, selfURL string) (*rancherrest.Workload, error) {
	if err := f.record("GetWorkload"); err != nil {
		return nil, err
	}

	polls := 0
	for _, call := range f.calls {
		if call == "GetWorkload" {
			polls++
		}
	}

	state := rancherrest.StateActive
	if len(f.pollStates) > 0 {
		state = f.pollStates[min(polls, len(f.pollStates))-1]
	}

	return &rancherrest.Workload{Name: "frontend", State: state}, nil
}

func (f *fakeClient) UpdateWorkload(ctx context.Context, selfURL string, workload *rancherrest.Workload) (*rancherrest.Workload, error) {
	if err := f.record("UpdateWorkload"); err != nil {
		return nil, err
	}
	f.updates = append(f.updates, workload)
	return workload, nil
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func mustWorkload(t *testing.T, raw string) *rancherrest.Workload {
	var workload rancherrest.Workload
	require.NoError(t, json.Unmarshal([]byte(raw), &workload))
	return &workload
}

func workloadJSON(name, state string) string {
	return fmt.Sprintf(`{
		"id": "deployment:web:%[1]s",
		"name": "%[1]s",
		"state": "%[2]s",
		"scale": 2,
		"annotations": {"owner": "team-a"},
		"containers": [{"name": "%[1]s", "image": "registry.example.com/%[1]s:1.0.0"}],
		"links": {"self": "%[3]s"}
	}`, name, state, testSelfLink)
}

func newFakeClient(t *testing.T) *fakeClient {
	return &fakeClient{
		clusters: []*rancherrest.Cluster{
			{ID: "local", Name: "local"},
			{ID: "c-x1y2z", Name: "Production"},
		},
		projects: map[string][]*rancherrest.Project{
			"c-x1y2z": {
				{ID: "c-x1y2z:p-sys00", Name: "System"},
				{ID: "c-x1y2z:p-abcde", Name: "Default"},
			},
		},
		namespaces: map[string][]*rancherrest.Namespace{
			"c-x1y2z/c-x1y2z:p-abcde": {
				{ID: "ns-web", Name: "web"},
			},
		},
		workloads: map[string][]*rancherrest.Workload{
			"c-x1y2z:p-abcde/ns-web": {
				mustWorkload(t, workloadJSON("backend", "active")),
				mustWorkload(t, workloadJSON("frontend", "active")),
			},
		},
	}
}

type sleepRecorder struct {
	sleeps []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	return ctx.Err()
}

var fixedNow = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)

func newTestController(t *testing.T, client upgradecontrol.Client) (*upgradecontrol.Controller, *sleepRecorder, *bytes.Buffer) {
	color.NoColor = true

	sleeper := &sleepRecorder{}
	var out bytes.Buffer

	ctrl := upgradecontrol.NewController(&upgradecontrol.ControllerOptions{
		Logger:       zaptest.NewLogger(t),
		Client:       client,
		Console:      consolehelper.New(&out),
		Host:         "rancher.example.com",
		Now:          func() time.Time { return fixedNow },
		Sleep:        sleeper.Sleep,
		PollInterval: 2 * time.Second,
	})

	return ctrl, sleeper, &out
}

var defaultTarget = upgradecontrol.Target{
	Cluster:     "production",
	Environment: "default",
	Stack:       "WEB",
	Service:     "Frontend",
}
