package audit

import (
	"context"

	"github.com/temirov/belay/internal/credentials"
	"github.com/temirov/belay/internal/report"
	"github.com/temirov/belay/internal/slackapi"
)

// IntegrationLogSource lists integration log pages.
type IntegrationLogSource interface {
	IntegrationLogs(executionContext context.Context, page int) (slackapi.IntegrationLogsPage, error)
}

// MemberSource lists workspace member pages.
type MemberSource interface {
	Users(executionContext context.Context, cursor string) (slackapi.UsersPage, error)
}

// SlackClient is the Slack API surface used by one audit run.
type SlackClient interface {
	credentials.IdentityClient
	IntegrationLogSource
	MemberSource
	report.Messenger
}

// ClientFactory builds a SlackClient bound to token.
type ClientFactory func(token string) (SlackClient, error)

// NewClientFactory returns a ClientFactory producing slackapi clients with the given transport settings.
func NewClientFactory(configuration slackapi.ClientConfiguration) ClientFactory {
	return func(token string) (SlackClient, error) {
		client, clientError := slackapi.NewClient(token, configuration)
		if clientError != nil {
			return nil, clientError
		}
		return client, nil
	}
}

// ResolveClientFactory returns factory or the default Slack client factory when factory is nil.
func ResolveClientFactory(factory ClientFactory) ClientFactory {
	if factory != nil {
		return factory
	}
	return NewClientFactory(slackapi.ClientConfiguration{})
}
