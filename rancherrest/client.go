package rancherrest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	logger    *zap.Logger
	rc        *resty.Client
	endpoint  string
	requestID string
}

type ClientOptions struct {
	Logger *zap.Logger

	// Endpoint is the versioned API base, eg: https://rancher.example.com/v3
	Endpoint  string
	AccessKey string
	SecretKey string

	// Debug dumps every request and response through Logger at debug level.
	Debug bool

	Timeout   time.Duration
	RequestID string
}

func NewClient(opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	if opts.Endpoint == "" {
		return nil, errors.New("an api endpoint is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// Rancher installs commonly run with self-signed certificates, so
	// verification is always off.
	rc := resty.New().
		SetTimeout(timeout).
		SetBasicAuth(opts.AccessKey, opts.SecretKey).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}). //nolint:gosec
		SetHeader("Accept", "application/json").
		SetHeader("X-Request-Id", requestID).
		SetLogger(logger.Sugar()).
		SetDebug(opts.Debug)

	return &Client{
		logger:    logger.With(zap.String("requestId", requestID)),
		rc:        rc,
		endpoint:  opts.Endpoint,
		requestID: requestID,
	}, nil
}

func (c *Client) Close() error {
	return c.rc.Close()
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) RequestID() string {
	return c.requestID
}

type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

var _ error = (*RequestError)(nil)

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error (%s %s, status: %d): %s",
		e.Method, e.URL, e.StatusCode, e.Body)
}

// doReq decodes the response body into out regardless of the Content-Type
// the server claims, so a 2xx reply that isn't JSON fails loudly.
func (c *Client) doReq(
	ctx context.Context,
	method string,
	reqURL string,
	body interface{},
	out interface{},
) error {
	c.logger.Debug("sending request",
		zap.String("method", method),
		zap.String("url", reqURL))

	req := c.rc.R().SetContext(ctx)

	if body != nil {
		encodedBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}

		req.SetHeader("Content-Type", "application/json").
			SetBody(encodedBody)
	}

	resp, err := req.Execute(method, reqURL)
	if err != nil {
		return errors.Wrapf(err, "failed to execute %s request", method)
	}

	if !resp.IsSuccess() {
		return &RequestError{
			Method:     method,
			URL:        reqURL,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode()))

	if out != nil {
		err = json.Unmarshal(resp.Bytes(), out)
		if err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}

	return nil
}

type collection[T any] struct {
	Type string `json:"type"`
	Data []T    `json:"data"`
}

// listOptions always carries limit=-1 so collections come back unpaginated.
type listOptions struct {
	Limit       int    `url:"limit"`
	ClusterID   string `url:"clusterId,omitempty"`
	ProjectID   string `url:"projectId,omitempty"`
	NamespaceID string `url:"namespaceId,omitempty"`
}

func listAll[T any](ctx context.Context, c *Client, path string, opts listOptions) ([]T, error) {
	opts.Limit = -1

	form, err := query.Values(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode list options")
	}

	var resp collection[T]
	err = c.doReq(ctx, http.MethodGet, c.endpoint+path+"?"+form.Encode(), nil, &resp)
	if err != nil {
		return nil, err
	}

	return resp.Data, nil
}

func (c *Client) ListClusters(ctx context.Context) ([]*Cluster, error) {
	return listAll[*Cluster](ctx, c, "/clusters", listOptions{})
}

func (c *Client) ListProjects(ctx context.Context, clusterID string) ([]*Project, error) {
	return listAll[*Project](ctx, c, "/projects", listOptions{
		ClusterID: clusterID,
	})
}

func (c *Client) ListNamespaces(ctx context.Context, clusterID, projectID string) ([]*Namespace, error) {
	path := fmt.Sprintf("/cluster/%s/namespaces", url.PathEscape(clusterID))
	return listAll[*Namespace](ctx, c, path, listOptions{
		ProjectID: projectID,
	})
}

func (c *Client) ListWorkloads(ctx context.Context, projectID, namespaceID string) ([]*Workload, error) {
	path := fmt.Sprintf("/projects/%s/workloads", url.PathEscape(projectID))
	return listAll[*Workload](ctx, c, path, listOptions{
		NamespaceID: namespaceID,
	})
}

// GetWorkload fetches a workload through its server-provided self link.
func (c *Client) GetWorkload(ctx context.Context, selfURL string) (*Workload, error) {
	var resp Workload
	err := c.doReq(ctx, http.MethodGet, selfURL, nil, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// UpdateWorkload replaces the whole workload record at its self link.
func (c *Client) UpdateWorkload(ctx context.Context, selfURL string, workload *Workload) (*Workload, error) {
	var resp Workload
	err := c.doReq(ctx, http.MethodPut, selfURL, workload, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}
