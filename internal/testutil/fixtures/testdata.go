// Package fixtures provides shared test data constants for the authn-core
// test suite.
//
// Using common constants for domains, principals and credentials prevents
// magic strings in tests and keeps cache-key expectations consistent
// across packages.
package fixtures

// Tenancy values.
const (
	// DomainID is the default domain of test tokens.
	DomainID = "domain-a1b2c3"

	// AltDomainID is a second domain for isolation tests.
	AltDomainID = "domain-d4e5f6"

	// WorkspaceID is the default workspace of test tokens.
	WorkspaceID = "workspace-001"

	// AltWorkspaceID is a second workspace, used as the x_workspace_id of
	// SYSTEM token requests.
	AltWorkspaceID = "workspace-002"
)

// Principal values.
const (
	// UserID is the audience of USER tokens.
	UserID = "user-abc-123"

	// AppID is the audience of APP tokens.
	AppID = "app-xyz-789"

	// CredentialID is the jti of APP tokens, the API key id passed to
	// App.check.
	CredentialID = "api-key-42"

	// SystemAudience is the audience of SYSTEM tokens.
	SystemAudience = "root"

	// Issuer is the iss claim of test tokens.
	Issuer = "spaceone.identity"

	// RoleType is the rol claim of non-SYSTEM test tokens.
	RoleType = "DOMAIN_ADMIN"
)

// Permission values.
var (
	// AppPermissions is what the fake identity service grants CredentialID.
	AppPermissions = []string{"inventory:Server.read", "inventory:Server.write"}

	// Projects is the projects claim of scoped test tokens.
	Projects = []string{"project-1", "project-2"}
)

// Configuration values used in config loader tests.
const (
	// TestEnvPrefix is the default environment variable prefix for config tests.
	TestEnvPrefix = "AUTHN"

	// TestConfigYAML is a minimal valid YAML configuration for tests.
	TestConfigYAML = `verifier:
  clock_skew: 45s
identity:
  transport: http
  endpoint: http://identity.local:8080
`
)
