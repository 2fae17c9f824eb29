package audit_test

import (
	"context"
	"errors"

	"github.com/temirov/belay/internal/audit"
	"github.com/temirov/belay/internal/slackapi"
)

const (
	callAuthTestConstant        = "auth.test"
	callUserInfoConstant        = "users.info"
	callIntegrationLogsConstant = "team.integrationLogs"
	callUsersConstant           = "users.list"
	callPostMessageConstant     = "chat.postMessage"
	callUploadFileConstant      = "files.upload"
)

type stubSlackClient struct {
	identity         slackapi.AuthIdentity
	authError        error
	owner            slackapi.User
	integrationPages []slackapi.IntegrationLogsPage
	integrationError error
	memberPages      map[string]slackapi.UsersPage
	membersError     error
	uploadedFile     slackapi.UploadedFile
	postedMessages   []slackapi.Message
	uploads          []slackapi.FileUpload
	calls            []string
}

func (client *stubSlackClient) AuthTest(executionContext context.Context) (slackapi.AuthIdentity, error) {
	client.calls = append(client.calls, callAuthTestConstant)
	if client.authError != nil {
		return slackapi.AuthIdentity{}, client.authError
	}
	return client.identity, nil
}

func (client *stubSlackClient) UserInfo(executionContext context.Context, userID string) (slackapi.User, error) {
	client.calls = append(client.calls, callUserInfoConstant)
	return client.owner, nil
}

func (client *stubSlackClient) IntegrationLogs(executionContext context.Context, page int) (slackapi.IntegrationLogsPage, error) {
	client.calls = append(client.calls, callIntegrationLogsConstant)
	if client.integrationError != nil {
		return slackapi.IntegrationLogsPage{}, client.integrationError
	}
	if page < 1 || page > len(client.integrationPages) {
		return slackapi.IntegrationLogsPage{}, errors.New("unexpected page")
	}
	return client.integrationPages[page-1], nil
}

func (client *stubSlackClient) Users(executionContext context.Context, cursor string) (slackapi.UsersPage, error) {
	client.calls = append(client.calls, callUsersConstant)
	if client.membersError != nil {
		return slackapi.UsersPage{}, client.membersError
	}
	return client.memberPages[cursor], nil
}

func (client *stubSlackClient) PostMessage(executionContext context.Context, message slackapi.Message) error {
	client.calls = append(client.calls, callPostMessageConstant)
	client.postedMessages = append(client.postedMessages, message)
	return nil
}

func (client *stubSlackClient) UploadFile(executionContext context.Context, upload slackapi.FileUpload) (slackapi.UploadedFile, error) {
	client.calls = append(client.calls, callUploadFileConstant)
	client.uploads = append(client.uploads, upload)
	return client.uploadedFile, nil
}

func (client *stubSlackClient) called(name string) bool {
	for _, call := range client.calls {
		if call == name {
			return true
		}
	}
	return false
}

func clientFactoryFor(clientsByToken map[string]*stubSlackClient) audit.ClientFactory {
	return func(token string) (audit.SlackClient, error) {
		client, exists := clientsByToken[token]
		if !exists {
			return nil, errors.New("unknown token")
		}
		return client, nil
	}
}

func stringPointer(value string) *string {
	return &value
}

func flexiblePointer(value string) *slackapi.FlexibleString {
	flexible := slackapi.FlexibleString(value)
	return &flexible
}

func appLogEntry(appID string, appType string, changeType string, scope string, date string) slackapi.IntegrationLogEntry {
	return slackapi.IntegrationLogEntry{
		ChangeType: changeType,
		Scope:      stringPointer(scope),
		AppID:      flexiblePointer(appID),
		AppType:    stringPointer(appType),
		UserID:     flexiblePointer("U0INSTALLER"),
		UserName:   "installer",
		Date:       slackapi.FlexibleString(date),
	}
}

func singleIntegrationPage(entries ...slackapi.IntegrationLogEntry) []slackapi.IntegrationLogsPage {
	return []slackapi.IntegrationLogsPage{{Logs: entries, Paging: slackapi.Paging{Page: 1, Pages: 1}}}
}

func singleMemberPage(members ...slackapi.User) map[string]slackapi.UsersPage {
	return map[string]slackapi.UsersPage{"": {Members: members}}
}
