// Package identity is the client for the identity service RPCs the
// verifier depends on: Domain.get_public_key and App.check.
//
// The client speaks to the service through a [Dispatcher], which sends a
// named method ("Resource.verb") with a JSON-like parameter map and
// returns the decoded response map. Two dispatchers are provided:
// [GRPCDispatcher] sends google.protobuf.Struct messages over gRPC and
// [HTTPDispatcher] posts JSON over HTTP.
//
//	cfg := identity.DefaultConfig()
//	cfg.Endpoint = "identity:50051"
//	client, err := identity.NewFromConfig(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	key, err := client.GetPublicKey(ctx, "domain-123")
package identity

import (
	"fmt"
	"time"
)

// Transport names accepted by [Config.Transport].
const (
	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

const (
	// DefaultTimeout bounds a single identity call.
	DefaultTimeout = 5 * time.Second

	// DefaultRetries is the HTTP retry count. gRPC calls are not retried.
	DefaultRetries = 2

	// DefaultServicePackage is the protobuf package of the identity
	// service definitions.
	DefaultServicePackage = "spaceone.api.identity.v2"
)

// Config holds the identity client configuration.
type Config struct {
	// Transport is "grpc" or "http".
	Transport string `json:"transport" yaml:"transport" env:"TRANSPORT" envDefault:"grpc"`

	// Endpoint is host:port for gRPC or a base URL for HTTP.
	Endpoint string `json:"endpoint" yaml:"endpoint" env:"ENDPOINT" required:"true"`

	// Timeout bounds each call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT" envDefault:"5s"`

	// Retries is the number of HTTP retries on transport errors and 5xx
	// responses.
	Retries int `json:"retries" yaml:"retries" env:"RETRIES" envDefault:"2"`

	// ServicePackage prefixes gRPC service names.
	ServicePackage string `json:"service_package" yaml:"service_package" env:"SERVICE_PACKAGE" envDefault:"spaceone.api.identity.v2"`

	// TLSEnabled enables TLS on the gRPC connection. HTTP endpoints
	// select TLS by URL scheme.
	TLSEnabled bool `json:"tls_enabled" yaml:"tls_enabled" env:"TLS_ENABLED"`
}

// DefaultConfig returns a Config with the package defaults and no
// endpoint.
func DefaultConfig() Config {
	return Config{
		Transport:      TransportGRPC,
		Timeout:        DefaultTimeout,
		Retries:        DefaultRetries,
		ServicePackage: DefaultServicePackage,
	}
}

// Validate applies defaults to zero-valued fields and returns the first
// invalid setting.
func (c *Config) Validate() error {
	if c.Transport == "" {
		c.Transport = TransportGRPC
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ServicePackage == "" {
		c.ServicePackage = DefaultServicePackage
	}

	switch c.Transport {
	case TransportGRPC, TransportHTTP:
	default:
		return fmt.Errorf("identity: unknown transport %q", c.Transport)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("identity: endpoint is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("identity: timeout must not be negative, got %s", c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("identity: retries must not be negative, got %d", c.Retries)
	}
	return nil
}
