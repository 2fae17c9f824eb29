package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Slack Web API endpoint.
	DefaultBaseURL = "https://slack.com/api/"

	contentTypeHeaderConstant      = "Content-Type"
	formContentTypeConstant        = "application/x-www-form-urlencoded"
	bearerTokenTypeConstant        = "Bearer"
	urlPathSeparatorConstant       = "/"
	userParameterConstant          = "user"
	pageParameterConstant          = "page"
	cursorParameterConstant        = "cursor"
	limitParameterConstant         = "limit"
	channelParameterConstant       = "channel"
	channelsParameterConstant      = "channels"
	textParameterConstant          = "text"
	attachmentsParameterConstant   = "attachments"
	contentParameterConstant       = "content"
	titleParameterConstant         = "title"
	fileTypeParameterConstant      = "filetype"
	channelListSeparatorConstant   = ","
	usersPageLimitConstant         = 200
	tokenRequiredMessageConstant   = "slack token must be provided"
	channelRequiredMessageConstant = "slack channel must be provided"
	userIDRequiredMessageConstant  = "slack user id must be provided"
	contentRequiredMessageConstant = "upload content must be provided"
	maximumErrorBodyBytesConstant  = 512
)

var (
	// ErrTokenRequired indicates the client was constructed without a token.
	ErrTokenRequired = errors.New(tokenRequiredMessageConstant)
	// ErrChannelRequired indicates a delivery request without a destination.
	ErrChannelRequired = errors.New(channelRequiredMessageConstant)
	// ErrUserIDRequired indicates a users.info request without a user.
	ErrUserIDRequired = errors.New(userIDRequiredMessageConstant)
	// ErrContentRequired indicates an empty upload.
	ErrContentRequired = errors.New(contentRequiredMessageConstant)
)

// ClientConfiguration tunes the transport used by Client.
type ClientConfiguration struct {
	BaseURL   string
	Transport http.RoundTripper
}

// Client calls the Slack Web API with a single bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type responseEnvelope struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

// NewClient constructs a Client authenticated with token.
func NewClient(token string, configuration ClientConfiguration) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenRequired
	}

	baseURL := strings.TrimSpace(configuration.BaseURL)
	if len(baseURL) == 0 {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, urlPathSeparatorConstant) {
		baseURL += urlPathSeparatorConstant
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: trimmedToken,
		TokenType:   bearerTokenTypeConstant,
	})

	return &Client{
		httpClient: &http.Client{
			Transport: &oauth2.Transport{
				Source: tokenSource,
				Base:   configuration.Transport,
			},
		},
		baseURL: baseURL,
	}, nil
}

// AuthTest reports the identity owning the client token.
func (client *Client) AuthTest(executionContext context.Context) (AuthIdentity, error) {
	var identity AuthIdentity
	if callError := client.call(executionContext, MethodAuthTest, url.Values{}, &identity); callError != nil {
		return AuthIdentity{}, callError
	}
	return identity, nil
}

// UserInfo retrieves a single user.
func (client *Client) UserInfo(executionContext context.Context, userID string) (User, error) {
	trimmedUserID := strings.TrimSpace(userID)
	if len(trimmedUserID) == 0 {
		return User{}, ErrUserIDRequired
	}

	parameters := url.Values{}
	parameters.Set(userParameterConstant, trimmedUserID)

	var response struct {
		User User `json:"user"`
	}
	if callError := client.call(executionContext, MethodUsersInfo, parameters, &response); callError != nil {
		return User{}, callError
	}
	return response.User, nil
}

// IntegrationLogs retrieves one page of integration logs. Page numbers start at 1; zero
// requests the first page.
func (client *Client) IntegrationLogs(executionContext context.Context, page int) (IntegrationLogsPage, error) {
	parameters := url.Values{}
	if page > 0 {
		parameters.Set(pageParameterConstant, strconv.Itoa(page))
	}

	var response struct {
		Logs   []IntegrationLogEntry `json:"logs"`
		Paging Paging                `json:"paging"`
	}
	if callError := client.call(executionContext, MethodTeamIntegrationLogs, parameters, &response); callError != nil {
		return IntegrationLogsPage{}, callError
	}
	return IntegrationLogsPage{Logs: response.Logs, Paging: response.Paging}, nil
}

// Users retrieves one page of workspace members. An empty cursor requests the first page.
func (client *Client) Users(executionContext context.Context, cursor string) (UsersPage, error) {
	parameters := url.Values{}
	parameters.Set(limitParameterConstant, strconv.Itoa(usersPageLimitConstant))
	if trimmedCursor := strings.TrimSpace(cursor); len(trimmedCursor) > 0 {
		parameters.Set(cursorParameterConstant, trimmedCursor)
	}

	var response struct {
		Members          []User `json:"members"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if callError := client.call(executionContext, MethodUsersList, parameters, &response); callError != nil {
		return UsersPage{}, callError
	}
	return UsersPage{Members: response.Members, NextCursor: strings.TrimSpace(response.ResponseMetadata.NextCursor)}, nil
}

// PostMessage posts text and attachments to a channel.
func (client *Client) PostMessage(executionContext context.Context, message Message) error {
	channel := strings.TrimSpace(message.Channel)
	if len(channel) == 0 {
		return ErrChannelRequired
	}

	parameters := url.Values{}
	parameters.Set(channelParameterConstant, channel)
	if len(message.Text) > 0 {
		parameters.Set(textParameterConstant, message.Text)
	}
	if len(message.Attachments) > 0 {
		encodedAttachments, encodeError := json.Marshal(message.Attachments)
		if encodeError != nil {
			return OperationError{Method: MethodChatPostMessage, Cause: encodeError}
		}
		parameters.Set(attachmentsParameterConstant, string(encodedAttachments))
	}

	return client.call(executionContext, MethodChatPostMessage, parameters, nil)
}

// UploadFile uploads content as a file shared to the requested channels.
func (client *Client) UploadFile(executionContext context.Context, upload FileUpload) (UploadedFile, error) {
	if len(upload.Content) == 0 {
		return UploadedFile{}, ErrContentRequired
	}

	parameters := url.Values{}
	parameters.Set(contentParameterConstant, upload.Content)
	if len(upload.Title) > 0 {
		parameters.Set(titleParameterConstant, upload.Title)
	}
	if len(upload.FileType) > 0 {
		parameters.Set(fileTypeParameterConstant, upload.FileType)
	}
	if len(upload.Channels) > 0 {
		parameters.Set(channelsParameterConstant, strings.Join(upload.Channels, channelListSeparatorConstant))
	}

	var response struct {
		File UploadedFile `json:"file"`
	}
	if callError := client.call(executionContext, MethodFilesUpload, parameters, &response); callError != nil {
		return UploadedFile{}, callError
	}
	return response.File, nil
}

// call posts form parameters to method and decodes the response into target when it is non-nil.
func (client *Client) call(executionContext context.Context, method MethodName, parameters url.Values, target any) error {
	request, requestError := http.NewRequestWithContext(
		executionContext,
		http.MethodPost,
		client.baseURL+string(method),
		strings.NewReader(parameters.Encode()),
	)
	if requestError != nil {
		return OperationError{Method: method, Cause: requestError}
	}
	request.Header.Set(contentTypeHeaderConstant, formContentTypeConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return OperationError{Method: method, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maximumErrorBodyBytesConstant))
		return OperationError{Method: method, Cause: HTTPStatusError{StatusCode: response.StatusCode}}
	}

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		return OperationError{Method: method, Cause: readError}
	}

	var envelope responseEnvelope
	if decodeError := json.Unmarshal(body, &envelope); decodeError != nil {
		return ResponseDecodingError{Method: method, Cause: decodeError}
	}
	if !envelope.OK {
		return APIError{Method: method, Code: envelope.Error}
	}

	if target == nil {
		return nil
	}
	if decodeError := json.Unmarshal(body, target); decodeError != nil {
		return ResponseDecodingError{Method: method, Cause: decodeError}
	}
	return nil
}
