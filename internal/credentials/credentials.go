// Package credentials validates the Slack tokens belay runs with before any audit step.
package credentials

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/belay/internal/slackapi"
)

const (
	credentialErrorTemplateConstant          = "%s credential %s"
	credentialErrorWithCauseTemplateConstant = "%s credential %s: %v"
	reasonInvalidConstant                    = "is invalid"
	reasonLookupFailedConstant               = "owner lookup failed"
	reasonMustBeBotConstant                  = "must belong to a bot user"
	reasonMustNotBeBotConstant               = "must not belong to a bot user"
	credentialValidatedMessageConstant       = "credential validated"
	logFieldCredentialConstant               = "credential"
	logFieldUserIDConstant                   = "user_id"
	logFieldTeamConstant                     = "team"
)

// Credential names used by belay.
const (
	NameAPI          = "api"
	NameNotification = "notification"
)

// IdentityClient exposes the Slack calls required to identify a token owner.
type IdentityClient interface {
	AuthTest(executionContext context.Context) (slackapi.AuthIdentity, error)
	UserInfo(executionContext context.Context, userID string) (slackapi.User, error)
}

// NamedCredential names a token and states whether its owner must be a bot.
type NamedCredential struct {
	Name      string
	ExpectBot bool
}

// CredentialError reports a token that cannot be used for its purpose.
type CredentialError struct {
	Credential string
	Reason     string
	Cause      error
}

// Error describes the credential failure.
func (credentialError CredentialError) Error() string {
	if credentialError.Cause == nil {
		return fmt.Sprintf(credentialErrorTemplateConstant, credentialError.Credential, credentialError.Reason)
	}
	return fmt.Sprintf(credentialErrorWithCauseTemplateConstant, credentialError.Credential, credentialError.Reason, credentialError.Cause)
}

// Unwrap exposes the underlying cause.
func (credentialError CredentialError) Unwrap() error {
	return credentialError.Cause
}

// Validator checks named credentials against the Slack API.
type Validator struct {
	logger *zap.Logger
}

// NewValidator constructs a Validator.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate confirms the token behind client is valid and that its owner's bot status matches
// credential.ExpectBot.
func (validator *Validator) Validate(executionContext context.Context, credential NamedCredential, client IdentityClient) (slackapi.AuthIdentity, error) {
	identity, authError := client.AuthTest(executionContext)
	if authError != nil {
		return slackapi.AuthIdentity{}, CredentialError{Credential: credential.Name, Reason: reasonInvalidConstant, Cause: authError}
	}

	owner, ownerError := client.UserInfo(executionContext, identity.UserID)
	if ownerError != nil {
		return slackapi.AuthIdentity{}, CredentialError{Credential: credential.Name, Reason: reasonLookupFailedConstant, Cause: ownerError}
	}

	switch {
	case credential.ExpectBot && !owner.IsBot:
		return slackapi.AuthIdentity{}, CredentialError{Credential: credential.Name, Reason: reasonMustBeBotConstant}
	case !credential.ExpectBot && owner.IsBot:
		return slackapi.AuthIdentity{}, CredentialError{Credential: credential.Name, Reason: reasonMustNotBeBotConstant}
	}

	validator.logger.Debug(
		credentialValidatedMessageConstant,
		zap.String(logFieldCredentialConstant, credential.Name),
		zap.String(logFieldUserIDConstant, identity.UserID),
		zap.String(logFieldTeamConstant, identity.Team),
	)

	return identity, nil
}
