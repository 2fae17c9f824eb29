package audit_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/temirov/belay/internal/audit"
	"github.com/temirov/belay/internal/credentials"
	"github.com/temirov/belay/internal/report"
	"github.com/temirov/belay/internal/slackapi"
	"github.com/temirov/belay/internal/teamconfig"
)

const (
	serviceSubtestTemplateConstant = "%d_%s"
	apiTokenConstant               = "xoxp-api"
	botTokenConstant               = "xoxb-bot"
	outputChannelConstant          = "#security"
	ownerUserIDConstant            = "U0OWNER"
	botUserIDConstant              = "U0BOT"
)

func newHumanClient() *stubSlackClient {
	return &stubSlackClient{
		identity: slackapi.AuthIdentity{UserID: ownerUserIDConstant, Team: "example"},
		owner:    slackapi.User{ID: ownerUserIDConstant},
	}
}

func newBotClient() *stubSlackClient {
	return &stubSlackClient{
		identity: slackapi.AuthIdentity{UserID: botUserIDConstant, Team: "example"},
		owner:    slackapi.User{ID: botUserIDConstant, IsBot: true},
	}
}

func TestServiceRunWritesReportsToStandardOutput(testInstance *testing.T) {
	color.NoColor = true

	apiClient := newHumanClient()
	apiClient.integrationPages = []slackapi.IntegrationLogsPage{
		{Logs: []slackapi.IntegrationLogEntry{appLogEntry(firstAppIDConstant, "Search", "added", "search:read", logDateConstant)}, Paging: slackapi.Paging{Page: 1, Pages: 2}},
		{Logs: []slackapi.IntegrationLogEntry{appLogEntry(secondAppIDConstant, "Admin", "added", "admin", "1400000000")}, Paging: slackapi.Paging{Page: 2, Pages: 2}},
	}
	apiClient.memberPages = map[string]slackapi.UsersPage{
		"":     {Members: []slackapi.User{{ID: firstMemberIDConstant, Name: "zed", RealName: "Zed"}}, NextCursor: "next"},
		"next": {Members: []slackapi.User{{ID: secondMemberIDConstant, Name: "amy", RealName: "Amy", Has2FA: true, TwoFactorType: smsTwoFactorTypeConstant}}},
	}

	var output bytes.Buffer
	service := audit.NewService(clientFactoryFor(map[string]*stubSlackClient{apiTokenConstant: apiClient}), &output, nil)

	runError := service.Run(context.Background(), teamconfig.Configuration{APIToken: apiTokenConstant})
	require.NoError(testInstance, runError)

	rendered := output.String()
	integrationHeadingIndex := strings.Index(rendered, audit.IntegrationReportHeading)
	userHeadingIndex := strings.Index(rendered, audit.UserReportHeading)
	require.GreaterOrEqual(testInstance, integrationHeadingIndex, 0)
	require.Greater(testInstance, userHeadingIndex, integrationHeadingIndex)

	require.Contains(testInstance, rendered, "Admin: "+adminViolationConstant)
	require.Contains(testInstance, rendered, "Search: "+searchViolationConstant)
	require.Less(testInstance, strings.Index(rendered, "Admin: "), strings.Index(rendered, "Search: "))

	require.Contains(testInstance, rendered, "Amy: "+smsTwoFactorViolation)
	require.Contains(testInstance, rendered, "Zed: "+missingTwoFactorViolation)
	require.Less(testInstance, strings.Index(rendered, "Amy: "), strings.Index(rendered, "Zed: "))

	require.Empty(testInstance, apiClient.postedMessages)
}

func TestServiceRunReportsEmptyResults(testInstance *testing.T) {
	color.NoColor = true

	apiClient := newHumanClient()
	apiClient.integrationPages = singleIntegrationPage()
	apiClient.memberPages = singleMemberPage(slackapi.User{ID: firstMemberIDConstant, Has2FA: true, TwoFactorType: appTwoFactorTypeConstant})

	var output bytes.Buffer
	service := audit.NewService(clientFactoryFor(map[string]*stubSlackClient{apiTokenConstant: apiClient}), &output, nil)

	require.NoError(testInstance, service.Run(context.Background(), teamconfig.Configuration{APIToken: apiTokenConstant}))
	require.Equal(testInstance, 2, strings.Count(output.String(), report.EmptyReportText))
}

func TestServiceRunSkipsIntegrations(testInstance *testing.T) {
	color.NoColor = true

	apiClient := newHumanClient()
	apiClient.memberPages = singleMemberPage(slackapi.User{ID: firstMemberIDConstant})

	var output bytes.Buffer
	service := audit.NewService(clientFactoryFor(map[string]*stubSlackClient{apiTokenConstant: apiClient}), &output, nil)

	require.NoError(testInstance, service.Run(context.Background(), teamconfig.Configuration{APIToken: apiTokenConstant, SkipIntegrations: true}))
	require.False(testInstance, apiClient.called(callIntegrationLogsConstant))
	require.NotContains(testInstance, output.String(), audit.IntegrationReportHeading)
	require.Contains(testInstance, output.String(), audit.UserReportHeading)
}

func TestServiceRunDeliversToChannel(testInstance *testing.T) {
	testCases := []struct {
		name              string
		botToken          string
		expectBotDelivery bool
	}{
		{name: "bot_token_delivers", botToken: botTokenConstant, expectBotDelivery: true},
		{name: "api_token_delivers_without_bot_token", botToken: "", expectBotDelivery: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serviceSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			apiClient := newHumanClient()
			apiClient.integrationPages = singleIntegrationPage(appLogEntry(firstAppIDConstant, "Admin", "added", "admin", logDateConstant))
			apiClient.memberPages = singleMemberPage(slackapi.User{ID: firstMemberIDConstant, RealName: "First"})
			botClient := newBotClient()

			var output bytes.Buffer
			service := audit.NewService(clientFactoryFor(map[string]*stubSlackClient{
				apiTokenConstant: apiClient,
				botTokenConstant: botClient,
			}), &output, nil)

			runError := service.Run(context.Background(), teamconfig.Configuration{
				APIToken:      apiTokenConstant,
				BotToken:      testCase.botToken,
				OutputChannel: outputChannelConstant,
			})
			require.NoError(testInstance, runError)
			require.Empty(testInstance, output.String())

			deliveringClient := apiClient
			idleClient := botClient
			if testCase.expectBotDelivery {
				deliveringClient = botClient
				idleClient = apiClient
			}

			require.Len(testInstance, deliveringClient.postedMessages, 2)
			require.Empty(testInstance, idleClient.postedMessages)

			integrationMessage := deliveringClient.postedMessages[0]
			require.Equal(testInstance, outputChannelConstant, integrationMessage.Channel)
			require.Len(testInstance, integrationMessage.Attachments, 1)
			require.Equal(testInstance, audit.IntegrationReportHeading, integrationMessage.Attachments[0].Title)
			require.Contains(testInstance, integrationMessage.Attachments[0].Text, adminViolationConstant)

			userMessage := deliveringClient.postedMessages[1]
			require.Equal(testInstance, audit.UserReportHeading, userMessage.Attachments[0].Title)
			require.Contains(testInstance, userMessage.Attachments[0].Text, missingTwoFactorViolation)
		})
	}
}

func TestServiceRunUploadsLongReports(testInstance *testing.T) {
	apiClient := newHumanClient()
	apiClient.uploadedFile = slackapi.UploadedFile{Permalink: "https://example.slack.com/files/report"}
	apiClient.memberPages = map[string]slackapi.UsersPage{}

	members := make([]slackapi.User, 0, 100)
	for memberIndex := 0; memberIndex < 100; memberIndex++ {
		members = append(members, slackapi.User{ID: fmt.Sprintf("U%04d", memberIndex), Name: fmt.Sprintf("member%04d", memberIndex)})
	}
	apiClient.memberPages[""] = slackapi.UsersPage{Members: members}

	service := audit.NewService(clientFactoryFor(map[string]*stubSlackClient{apiTokenConstant: apiClient}), &bytes.Buffer{}, nil)
	runError := service.Run(context.Background(), teamconfig.Configuration{
		APIToken:         apiTokenConstant,
		OutputChannel:    outputChannelConstant,
		SkipIntegrations: true,
	})
	require.NoError(testInstance, runError)

	require.Len(testInstance, apiClient.uploads, 1)
	require.Equal(testInstance, []string{outputChannelConstant}, apiClient.uploads[0].Channels)
	require.Equal(testInstance, audit.UserReportHeading, apiClient.uploads[0].Title)
	require.Len(testInstance, apiClient.postedMessages, 1)
	require.Contains(testInstance, apiClient.postedMessages[0].Text, apiClient.uploadedFile.Permalink)
}

func TestServiceRunFailures(testInstance *testing.T) {
	listingFailure := errors.New("listing failed")

	testCases := []struct {
		name                 string
		configuration        teamconfig.Configuration
		prepareAPIClient     func(client *stubSlackClient)
		botClient            *stubSlackClient
		expectedCredential   string
		expectedErrorMessage string
		expectConfiguration  bool
		expectIntegrations   bool
		expectMembers        bool
	}{
		{
			name:                "missing_api_token",
			configuration:       teamconfig.Configuration{},
			expectConfiguration: true,
		},
		{
			name:          "api_token_owned_by_bot",
			configuration: teamconfig.Configuration{APIToken: apiTokenConstant},
			prepareAPIClient: func(client *stubSlackClient) {
				client.owner.IsBot = true
			},
			expectedCredential: credentials.NameAPI,
		},
		{
			name:          "api_token_rejected",
			configuration: teamconfig.Configuration{APIToken: apiTokenConstant},
			prepareAPIClient: func(client *stubSlackClient) {
				client.authError = slackapi.APIError{Method: slackapi.MethodAuthTest, Code: "invalid_auth"}
			},
			expectedCredential: credentials.NameAPI,
		},
		{
			name:               "bot_token_owned_by_human",
			configuration:      teamconfig.Configuration{APIToken: apiTokenConstant, BotToken: botTokenConstant, OutputChannel: outputChannelConstant},
			botClient:          newHumanClient(),
			expectedCredential: credentials.NameNotification,
		},
		{
			name:          "integration_listing_failure",
			configuration: teamconfig.Configuration{APIToken: apiTokenConstant},
			prepareAPIClient: func(client *stubSlackClient) {
				client.integrationError = listingFailure
			},
			expectedErrorMessage: "unable to list integration logs",
			expectIntegrations:   true,
		},
		{
			name:          "member_listing_failure",
			configuration: teamconfig.Configuration{APIToken: apiTokenConstant},
			prepareAPIClient: func(client *stubSlackClient) {
				client.integrationPages = singleIntegrationPage(appLogEntry(firstAppIDConstant, "Admin", "added", "admin", logDateConstant))
				client.membersError = listingFailure
			},
			expectedErrorMessage: "unable to list users",
			expectIntegrations:   true,
			expectMembers:        true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(serviceSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			apiClient := newHumanClient()
			if testCase.prepareAPIClient != nil {
				testCase.prepareAPIClient(apiClient)
			}
			clients := map[string]*stubSlackClient{apiTokenConstant: apiClient}
			if testCase.botClient != nil {
				clients[botTokenConstant] = testCase.botClient
			}

			var output bytes.Buffer
			service := audit.NewService(clientFactoryFor(clients), &output, nil)
			runError := service.Run(context.Background(), testCase.configuration)

			require.Error(testInstance, runError)
			require.Empty(testInstance, output.String())
			require.Empty(testInstance, apiClient.postedMessages)
			require.Equal(testInstance, testCase.expectIntegrations, apiClient.called(callIntegrationLogsConstant))
			require.Equal(testInstance, testCase.expectMembers, apiClient.called(callUsersConstant))

			if testCase.expectConfiguration {
				var configurationError teamconfig.ConfigurationError
				require.True(testInstance, errors.As(runError, &configurationError))
			}
			if len(testCase.expectedCredential) > 0 {
				var credentialError credentials.CredentialError
				require.True(testInstance, errors.As(runError, &credentialError))
				require.Equal(testInstance, testCase.expectedCredential, credentialError.Credential)
			}
			if len(testCase.expectedErrorMessage) > 0 {
				require.ErrorContains(testInstance, runError, testCase.expectedErrorMessage)
				require.ErrorIs(testInstance, runError, listingFailure)
			}
		})
	}
}
