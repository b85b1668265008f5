package rancherrest_test

import (
	"encoding/json"
	"testing"

	"github.com/couchbaselabs/rancher-gitlab-deploy/rancherrest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorkload = `{
	"id": "deployment:web:frontend",
	"name": "frontend",
	"state": "active",
	"namespaceId": "web",
	"paused": false,
	"annotations": {"cattle.io/timestamp": "2024-01-01T00:00:00Z"},
	"containers": [
		{"name": "frontend", "image": "nginx:1.25", "env": [{"name": "A", "value": "1"}]},
		{"name": "sidecar", "image": "envoy:1.30"}
	],
	"links": {"self": "https://rancher/v3/project/p1/workloads/deployment:web:frontend"}
}`

func TestWorkloadKeepsUnknownFields(t *testing.T) {
	var workload rancherrest.Workload
	require.NoError(t, json.Unmarshal([]byte(sampleWorkload), &workload))

	assert.Equal(t, "web", workload.NamespaceID)
	assert.Equal(t, "https://rancher/v3/project/p1/workloads/deployment:web:frontend", workload.SelfLink())

	encoded, err := json.Marshal(&workload)
	require.NoError(t, err)
	assert.JSONEq(t, sampleWorkload, string(encoded))
}

func TestWorkloadDeepCopyIsIndependent(t *testing.T) {
	var workload rancherrest.Workload
	require.NoError(t, json.Unmarshal([]byte(sampleWorkload), &workload))

	copied := workload.DeepCopy()
	copied.Annotations["extra"] = "value"
	copied.Containers[0].Image = "nginx:1.27"
	copied.Links["self"] = "elsewhere"

	assert.NotContains(t, workload.Annotations, "extra")
	assert.Equal(t, "nginx:1.25", workload.Containers[0].Image)
	assert.Equal(t, "https://rancher/v3/project/p1/workloads/deployment:web:frontend", workload.SelfLink())

	encoded, err := json.Marshal(&workload)
	require.NoError(t, err)
	assert.JSONEq(t, sampleWorkload, string(encoded))
}

func TestNilDeepCopy(t *testing.T) {
	var workload *rancherrest.Workload
	assert.Nil(t, workload.DeepCopy())
}

const nullFieldsWorkload = `{
	"id": "deployment:web:worker",
	"name": "worker",
	"state": "active",
	"namespaceId": null,
	"annotations": null,
	"containers": [{"name": "worker", "image": "worker:1.0", "command": null}],
	"links": null
}`

func TestWorkloadEchoesExplicitNulls(t *testing.T) {
	var workload rancherrest.Workload
	require.NoError(t, json.Unmarshal([]byte(nullFieldsWorkload), &workload))

	assert.Nil(t, workload.Annotations)
	assert.Nil(t, workload.Links)
	assert.Empty(t, workload.NamespaceID)

	encoded, err := json.Marshal(&workload)
	require.NoError(t, err)
	assert.JSONEq(t, nullFieldsWorkload, string(encoded))
}

func TestWorkloadSetFieldReplacesNull(t *testing.T) {
	var workload rancherrest.Workload
	require.NoError(t, json.Unmarshal([]byte(nullFieldsWorkload), &workload))

	workload.Annotations = map[string]string{"owner": "team-a"}

	encoded, err := json.Marshal(&workload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, map[string]interface{}{"owner": "team-a"}, decoded["annotations"])
	assert.Nil(t, decoded["links"])
	assert.Contains(t, decoded, "links")
}
