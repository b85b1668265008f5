package rancherrest

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

const (
	StateActive = "active"

	LinkSelf = "self"
)

type Cluster struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ClusterID string `json:"clusterId,omitempty"`
}

type Namespace struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId,omitempty"`
}

// Workload is a Rancher workload record. Updates are full replacements, so
// every field the server sent is kept in extra and written back verbatim.
type Workload struct {
	ID          string
	Name        string
	State       string
	NamespaceID string
	Annotations map[string]string
	Containers  []*Container
	Links       map[string]string

	extra map[string]json.RawMessage
}

type Container struct {
	Name  string
	Image string

	extra map[string]json.RawMessage
}

func (w *Workload) SelfLink() string {
	return w.Links[LinkSelf]
}

type workloadFields struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	State       string            `json:"state"`
	NamespaceID string            `json:"namespaceId"`
	Annotations map[string]string `json:"annotations"`
	Containers  []*Container      `json:"containers"`
	Links       map[string]string `json:"links"`
}

var workloadKeys = []string{"id", "name", "state", "namespaceId", "annotations", "containers", "links"}

func (w *Workload) UnmarshalJSON(data []byte) error {
	var known workloadFields
	err := json.Unmarshal(data, &known)
	if err != nil {
		return errors.Wrap(err, "failed to parse workload")
	}

	extra, err := unknownFields(data, workloadKeys)
	if err != nil {
		return errors.Wrap(err, "failed to parse workload")
	}

	*w = Workload{
		ID:          known.ID,
		Name:        known.Name,
		State:       known.State,
		NamespaceID: known.NamespaceID,
		Annotations: known.Annotations,
		Containers:  known.Containers,
		Links:       known.Links,
		extra:       extra,
	}
	return nil
}

func (w Workload) MarshalJSON() ([]byte, error) {
	out := cloneRaw(w.extra)

	err := setField(out, "id", w.ID, w.ID != "")
	if err == nil {
		err = setField(out, "name", w.Name, true)
	}
	if err == nil {
		err = setField(out, "state", w.State, w.State != "")
	}
	if err == nil {
		err = setField(out, "namespaceId", w.NamespaceID, w.NamespaceID != "")
	}
	if err == nil {
		err = setField(out, "annotations", w.Annotations, w.Annotations != nil)
	}
	if err == nil {
		err = setField(out, "containers", w.Containers, w.Containers != nil)
	}
	if err == nil {
		err = setField(out, "links", w.Links, w.Links != nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode workload")
	}

	return json.Marshal(out)
}

type containerFields struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

var containerKeys = []string{"name", "image"}

func (c *Container) UnmarshalJSON(data []byte) error {
	var known containerFields
	err := json.Unmarshal(data, &known)
	if err != nil {
		return errors.Wrap(err, "failed to parse container")
	}

	extra, err := unknownFields(data, containerKeys)
	if err != nil {
		return errors.Wrap(err, "failed to parse container")
	}

	*c = Container{
		Name:  known.Name,
		Image: known.Image,
		extra: extra,
	}
	return nil
}

func (c Container) MarshalJSON() ([]byte, error) {
	out := cloneRaw(c.extra)

	err := setField(out, "name", c.Name, c.Name != "")
	if err == nil {
		err = setField(out, "image", c.Image, true)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode container")
	}

	return json.Marshal(out)
}

// DeepCopy returns a copy that shares no mutable state with w.
func (w *Workload) DeepCopy() *Workload {
	if w == nil {
		return nil
	}

	out := &Workload{
		ID:          w.ID,
		Name:        w.Name,
		State:       w.State,
		NamespaceID: w.NamespaceID,
		Annotations: maps.Clone(w.Annotations),
		Links:       maps.Clone(w.Links),
		extra:       cloneRaw(w.extra),
	}

	if w.Containers != nil {
		out.Containers = make([]*Container, len(w.Containers))
		for containerIdx, container := range w.Containers {
			out.Containers[containerIdx] = container.DeepCopy()
		}
	}

	return out
}

func (c *Container) DeepCopy() *Container {
	if c == nil {
		return nil
	}

	return &Container{
		Name:  c.Name,
		Image: c.Image,
		extra: cloneRaw(c.extra),
	}
}

func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return nil, err
	}

	// an explicit null stays raw so it is echoed back unless the typed
	// field has since been set
	for _, key := range known {
		if !isNull(fields[key]) {
			delete(fields, key)
		}
	}

	return fields, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func cloneRaw(in map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(in))
	for key, value := range in {
		out[key] = append(json.RawMessage(nil), value...)
	}
	return out
}

func setField(fields map[string]json.RawMessage, key string, value interface{}, include bool) error {
	if !include {
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}

	fields[key] = encoded
	return nil
}
