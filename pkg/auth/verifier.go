package auth

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/authn-core/pkg/errors"
	"github.com/StricklySoft/authn-core/pkg/metrics"
)

// tracerName is the OpenTelemetry instrumentation scope of auth spans.
const tracerName = "github.com/StricklySoft/authn-core/pkg/auth"

// tokenLogPrefix is how much of an undecodable token is logged.
const tokenLogPrefix = 10

// Verifier authenticates requests. It holds no per-request state and is
// safe for concurrent use.
type Verifier struct {
	codec    *TokenCodec
	keys     KeyResolver
	perms    PermissionResolver
	tokenKey string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// VerifierOption configures a [Verifier].
type VerifierOption func(*Verifier)

// WithLogger sets the logger for verification failures. Defaults to
// [slog.Default].
func WithLogger(logger *slog.Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithTokenMetaKey changes the metadata key the token is read from.
// Defaults to [MetaToken].
func WithTokenMetaKey(key string) VerifierOption {
	return func(v *Verifier) {
		if key != "" {
			v.tokenKey = key
		}
	}
}

// NewVerifier returns a verifier using codec to check tokens, keys to
// find each domain's public key and perms to look up app permissions.
func NewVerifier(codec *TokenCodec, keys KeyResolver, perms PermissionResolver, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		codec:    codec,
		keys:     keys,
		perms:    perms,
		tokenKey: MetaToken,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// TokenMetaKey returns the metadata key the token is read from.
func (v *Verifier) TokenMetaKey() string { return v.tokenKey }

// Verify authenticates the request described by meta and, on success,
// writes the resulting [Authorization] into meta and returns it. On
// failure meta is left untouched.
//
// Error codes returned:
//   - [sserr.CodeAuthenticationMissing]: no token in meta
//   - [sserr.CodeAuthenticationDomainMissing]: the token has no domain
//   - [sserr.CodeAuthenticationExpired]: the token has expired
//   - [sserr.CodeAuthentication]: every other failure, including
//     resolution failures, which remain in the chain as
//     [sserr.CodeUnavailableKeyResolution] or
//     [sserr.CodeUnavailablePermissionResolution]
func (v *Verifier) Verify(ctx context.Context, meta Meta) (*Authorization, error) {
	start := time.Now()
	ctx, span := v.tracer.Start(ctx, "auth.Verify")
	defer span.End()

	authz, err := v.verify(ctx, meta, span)

	outcome := outcomeOf(err)
	metrics.ObserveVerification(outcome, time.Since(start).Seconds())
	span.SetAttributes(attribute.String("auth.outcome", outcome))

	if err != nil {
		finishSpan(span, err)
		attrs := []any{"reason", outcome, "error", err}
		if tx, ok := meta.(*Transaction); ok {
			attrs = append(attrs, "transaction_id", tx.ID())
		}
		if sserr.IsInfrastructure(err) {
			v.logger.ErrorContext(ctx, "auth: verification failed on a dependency", attrs...)
		} else {
			v.logger.WarnContext(ctx, "auth: verification failed", attrs...)
		}
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return authz, nil
}

func (v *Verifier) verify(ctx context.Context, meta Meta, span trace.Span) (*Authorization, error) {
	token, ok := metaString(meta, v.tokenKey)
	if !ok {
		return nil, sserr.MissingToken("auth: empty token provided")
	}

	domainID, err := v.discoverDomain(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.domain_id", domainID))

	key, err := v.keys.Resolve(ctx, domainID)
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeAuthentication, "auth: authentication failed")
	}

	info, err := v.codec.VerifyAndDecode(token, key)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("auth.token_type", string(info.TokenType)),
		attribute.String("auth.owner_type", string(info.OwnerType)),
	)

	var authz *Authorization
	switch {
	case info.TokenType == TokenTypeSystem:
		authz = &Authorization{
			TokenType: info.TokenType,
			RoleType:  SystemRoleType,
			OwnerType: info.OwnerType,
			Audience:  info.Audience,
		}
		authz.DomainID, _ = metaString(meta, MetaDomainID)
		authz.WorkspaceID, _ = metaString(meta, MetaWorkspaceID)

	case info.OwnerType == OwnerTypeApp:
		if info.CredentialID == "" {
			return nil, sserr.New(sserr.CodeAuthentication, "auth: app token has no credential id")
		}
		perms, err := v.perms.Resolve(ctx, info.CredentialID, info.DomainID)
		if err != nil {
			return nil, sserr.Wrap(err, sserr.CodeAuthentication, "auth: authentication failed")
		}
		authz = newAuthorization(info)
		authz.Permissions = perms

	default:
		authz = newAuthorization(info)
	}

	authz.WriteTo(meta)
	return authz, nil
}

// discoverDomain reads the domain of an unverified token.
func (v *Verifier) discoverDomain(ctx context.Context, token string) (string, error) {
	claims, err := v.codec.UnverifiedDecode(token)
	if err != nil {
		v.logger.DebugContext(ctx, "auth: failed to decode token", "token_prefix", truncate(token, tokenLogPrefix))
		return "", sserr.Wrap(err, sserr.CodeAuthentication, "auth: failed to decode token")
	}
	domainID := claims.DomainID()
	if domainID == "" {
		return "", sserr.DomainMissing("auth: empty domain_id provided")
	}
	return domainID, nil
}

// outcomeOf maps a verification error to its metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case sserr.IsKeyResolution(err):
		return metrics.OutcomeKeyResolution
	case sserr.IsPermissionResolution(err):
		return metrics.OutcomePermissionResolution
	case sserr.HasCode(err, sserr.CodeAuthenticationMissing):
		return metrics.OutcomeMissingToken
	case sserr.HasCode(err, sserr.CodeAuthenticationDomainMissing):
		return metrics.OutcomeDomainMissing
	case sserr.HasCode(err, sserr.CodeAuthenticationExpired):
		return metrics.OutcomeExpired
	case sserr.HasCodeInChain(err, sserr.CodeAuthenticationInvalid):
		return metrics.OutcomeMalformedToken
	default:
		return metrics.OutcomeInvalid
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func finishSpan(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
