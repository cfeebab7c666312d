package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// HTTPDispatcher posts identity methods as JSON to
// {endpoint}/{resource}/{verb}, with the resource lower-cased and
// underscores in the verb replaced by hyphens:
// "Domain.get_public_key" becomes POST /domain/get-public-key.
type HTTPDispatcher struct {
	client *resty.Client
}

var _ Dispatcher = (*HTTPDispatcher)(nil)

// NewHTTPDispatcher returns a dispatcher for cfg.Endpoint. Transport
// errors and 5xx responses are retried cfg.Retries times.
func NewHTTPDispatcher(cfg Config) *HTTPDispatcher {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Endpoint, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &HTTPDispatcher{client: client}
}

// Dispatch implements [Dispatcher].
func (d *HTTPDispatcher) Dispatch(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	path, err := httpPath(method)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("identity: %s returned HTTP %d", method, resp.StatusCode())
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func httpPath(method string) (string, error) {
	resource, verb, ok := strings.Cut(method, ".")
	if !ok || resource == "" || verb == "" {
		return "", fmt.Errorf("identity: method %q is not of the form Resource.verb", method)
	}
	return "/" + strings.ToLower(resource) + "/" + strings.ReplaceAll(verb, "_", "-"), nil
}
