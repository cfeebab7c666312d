package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
	"github.com/StricklySoft/authn-core/pkg/metrics"
)

const tracerName = "github.com/StricklySoft/authn-core/pkg/clients/identity"

// Identity methods.
const (
	MethodGetPublicKey = "Domain.get_public_key"
	MethodCheckApp     = "App.check"
)

// Client calls the identity service. It is safe for concurrent use when
// its dispatcher is.
type Client struct {
	dispatcher Dispatcher
	tracer     trace.Tracer
}

// New returns a client on dispatcher.
func New(dispatcher Dispatcher) *Client {
	return &Client{
		dispatcher: dispatcher,
		tracer:     otel.Tracer(tracerName),
	}
}

// NewFromConfig validates cfg and builds the dispatcher it selects.
//
// Error codes returned:
//   - [sserr.CodeValidation]: invalid configuration
//   - [sserr.CodeUnavailableDependency]: the gRPC client cannot be created
func NewFromConfig(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, sserr.Wrap(err, sserr.CodeValidation, "identity: invalid configuration")
	}

	switch cfg.Transport {
	case TransportHTTP:
		return New(NewHTTPDispatcher(cfg)), nil
	default:
		d, err := DialGRPC(cfg)
		if err != nil {
			return nil, sserr.Wrap(err, sserr.CodeUnavailableDependency, "identity: failed to create client")
		}
		return New(d), nil
	}
}

// GetPublicKey returns the verification key material of domainID, as
// the JSON Web Key string the service publishes. A response without a
// key yields "" and no error; callers decide whether that is fatal.
//
// Error codes returned:
//   - [sserr.CodeUnavailableDependency]: the call failed
//   - [sserr.CodeTimeoutDependency]: the call timed out
func (c *Client) GetPublicKey(ctx context.Context, domainID string) (string, error) {
	resp, err := c.call(ctx, MethodGetPublicKey, map[string]any{"domain_id": domainID},
		attribute.String("identity.domain_id", domainID))
	if err != nil {
		return "", err
	}

	switch v := resp["public_key"].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		// Some gateways return the JWK as an object rather than a string.
		b, err := json.Marshal(v)
		if err != nil {
			return "", sserr.Wrap(err, sserr.CodeUnavailableDependency, "identity: cannot encode public_key object")
		}
		return string(b), nil
	default:
		return "", sserr.Newf(sserr.CodeUnavailableDependency,
			"identity: %s returned public_key of type %T", MethodGetPublicKey, v)
	}
}

// CheckApp returns the permissions granted to the app API key apiKeyID in
// domainID. A response without a permissions field yields an empty slice.
//
// Error codes returned:
//   - [sserr.CodeUnavailableDependency]: the call failed or the
//     permissions field is not a list of strings
//   - [sserr.CodeTimeoutDependency]: the call timed out
func (c *Client) CheckApp(ctx context.Context, apiKeyID, domainID string) ([]string, error) {
	resp, err := c.call(ctx, MethodCheckApp,
		map[string]any{"api_key_id": apiKeyID, "domain_id": domainID},
		attribute.String("identity.domain_id", domainID))
	if err != nil {
		return nil, err
	}

	raw, ok := resp["permissions"]
	if !ok || raw == nil {
		return []string{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, sserr.Newf(sserr.CodeUnavailableDependency,
			"identity: %s returned permissions of type %T", MethodCheckApp, raw)
	}
	perms := make([]string, 0, len(list))
	for _, p := range list {
		s, ok := p.(string)
		if !ok {
			return nil, sserr.Newf(sserr.CodeUnavailableDependency,
				"identity: %s returned a non-string permission %v", MethodCheckApp, p)
		}
		perms = append(perms, s)
	}
	return perms, nil
}

// Close releases the dispatcher's resources when it holds any.
func (c *Client) Close() error {
	if closer, ok := c.dispatcher.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, attrs ...attribute.KeyValue) (map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "identity."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs, attribute.String("rpc.method", method))...),
	)
	defer span.End()

	resp, err := c.dispatcher.Dispatch(ctx, method, params)
	metrics.ObserveIdentityCall(method, err)
	if err != nil {
		wrapped := wrapError(err, method)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, wrapped
	}
	span.SetStatus(codes.Ok, "")
	if resp == nil {
		resp = map[string]any{}
	}
	return resp, nil
}

func wrapError(err error, method string) *sserr.Error {
	msg := fmt.Sprintf("identity: %s failed", method)
	if errors.Is(err, context.DeadlineExceeded) {
		return sserr.Wrap(err, sserr.CodeTimeoutDependency, msg)
	}
	if st, ok := status.FromError(err); ok && st.Code() == grpccodes.DeadlineExceeded {
		return sserr.Wrap(err, sserr.CodeTimeoutDependency, msg)
	}
	return sserr.Wrap(err, sserr.CodeUnavailableDependency, msg)
}
