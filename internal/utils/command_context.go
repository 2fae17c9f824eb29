package utils

import "context"

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	teamNameContextKeyConstant              = commandContextKey("teamName")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	return withValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, configurationFilePathContextKeyConstant)
}

// WithTeamName attaches the selected team name to the provided context.
func (accessor CommandContextAccessor) WithTeamName(parentContext context.Context, teamName string) context.Context {
	return withValue(parentContext, teamNameContextKeyConstant, teamName)
}

// TeamName extracts the selected team name. An empty name selects the only configured team.
func (accessor CommandContextAccessor) TeamName(executionContext context.Context) (string, bool) {
	return stringValue(executionContext, teamNameContextKeyConstant)
}

func withValue(parentContext context.Context, key commandContextKey, value string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, key, value)
}

func stringValue(executionContext context.Context, key commandContextKey) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, available := executionContext.Value(key).(string)
	if !available {
		return "", false
	}
	return value, true
}
