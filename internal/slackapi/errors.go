package slackapi

import "fmt"

const (
	operationErrorTemplateConstant        = "%s request failed: %v"
	apiErrorTemplateConstant              = "%s returned error: %s"
	apiErrorUnknownCodeConstant           = "unknown_error"
	responseDecodingErrorTemplateConstant = "%s response decoding failed: %v"
	httpStatusErrorTemplateConstant       = "unexpected HTTP status %d"
)

// MethodName identifies a Slack Web API method.
type MethodName string

// Slack Web API methods used by the client.
const (
	MethodAuthTest            MethodName = "auth.test"
	MethodUsersInfo           MethodName = "users.info"
	MethodUsersList           MethodName = "users.list"
	MethodTeamIntegrationLogs MethodName = "team.integrationLogs"
	MethodChatPostMessage     MethodName = "chat.postMessage"
	MethodFilesUpload         MethodName = "files.upload"
)

// OperationError wraps transport failures for a Slack API call.
type OperationError struct {
	Method MethodName
	Cause  error
}

// Error describes the transport failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Method, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// HTTPStatusError reports a non-success HTTP status code.
type HTTPStatusError struct {
	StatusCode int
}

// Error describes the status.
func (statusError HTTPStatusError) Error() string {
	return fmt.Sprintf(httpStatusErrorTemplateConstant, statusError.StatusCode)
}

// APIError reports a response whose ok flag was false.
type APIError struct {
	Method MethodName
	Code   string
}

// Error describes the Slack error code.
func (apiError APIError) Error() string {
	code := apiError.Code
	if len(code) == 0 {
		code = apiErrorUnknownCodeConstant
	}
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.Method, code)
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Method MethodName
	Cause  error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Method, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}
