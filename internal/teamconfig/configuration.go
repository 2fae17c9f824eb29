package teamconfig

import (
	"sort"
	"strings"
)

const (
	apiTokenKeyConstant                  = "api_token"
	botTokenKeyConstant                  = "bot_token"
	outputChannelKeyConstant             = "output_channel"
	skipIntegrationsKeyConstant          = "skip_integrations"
	integrationWhitelistKeyConstant      = "integration_whitelist"
	integrationIssueWhitelistKeyConstant = "integration_issue_whitelist"
	userWhitelistKeyConstant             = "user_whitelist"
	userIssueWhitelistKeyConstant        = "user_issue_whitelist"
	redactedTokenValueConstant           = "<redacted>"
)

var reservedSettingKeys = map[string]struct{}{
	apiTokenKeyConstant:                  {},
	botTokenKeyConstant:                  {},
	outputChannelKeyConstant:             {},
	skipIntegrationsKeyConstant:          {},
	integrationWhitelistKeyConstant:      {},
	integrationIssueWhitelistKeyConstant: {},
	userWhitelistKeyConstant:             {},
	userIssueWhitelistKeyConstant:        {},
	"log_level":                          {},
	"log_format":                         {},
}

// Configuration captures the audit policy for one workspace.
type Configuration struct {
	APIToken                  string              `mapstructure:"api_token" yaml:"api_token"`
	BotToken                  string              `mapstructure:"bot_token" yaml:"bot_token,omitempty"`
	OutputChannel             string              `mapstructure:"output_channel" yaml:"output_channel,omitempty"`
	SkipIntegrations          bool                `mapstructure:"skip_integrations" yaml:"skip_integrations"`
	IntegrationWhitelist      map[string][]string `mapstructure:"integration_whitelist" yaml:"integration_whitelist,omitempty"`
	IntegrationIssueWhitelist []string            `mapstructure:"integration_issue_whitelist" yaml:"integration_issue_whitelist,omitempty"`
	UserWhitelist             map[string][]string `mapstructure:"user_whitelist" yaml:"user_whitelist,omitempty"`
	UserIssueWhitelist        []string            `mapstructure:"user_issue_whitelist" yaml:"user_issue_whitelist,omitempty"`
}

// NotificationToken returns the credential used to deliver reports to OutputChannel.
func (configuration Configuration) NotificationToken() string {
	if len(configuration.BotToken) > 0 {
		return configuration.BotToken
	}
	return configuration.APIToken
}

// Redacted returns a copy safe for display.
func (configuration Configuration) Redacted() Configuration {
	redacted := configuration
	if len(redacted.APIToken) > 0 {
		redacted.APIToken = redactedTokenValueConstant
	}
	if len(redacted.BotToken) > 0 {
		redacted.BotToken = redactedTokenValueConstant
	}
	return redacted
}

// sanitize trims string values and upper-cases entity identifiers. Viper lower-cases
// map keys while Slack identifiers are upper-case.
func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.APIToken = strings.TrimSpace(configuration.APIToken)
	sanitized.BotToken = strings.TrimSpace(configuration.BotToken)
	sanitized.OutputChannel = strings.TrimSpace(configuration.OutputChannel)
	sanitized.IntegrationWhitelist = sanitizeEntityWhitelist(configuration.IntegrationWhitelist)
	sanitized.IntegrationIssueWhitelist = sanitizeIssueKeys(configuration.IntegrationIssueWhitelist)
	sanitized.UserWhitelist = sanitizeEntityWhitelist(configuration.UserWhitelist)
	sanitized.UserIssueWhitelist = sanitizeIssueKeys(configuration.UserIssueWhitelist)
	return sanitized
}

func sanitizeEntityWhitelist(raw map[string][]string) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	sanitized := make(map[string][]string, len(raw))
	for entityIdentifier, issueKeys := range raw {
		trimmedIdentifier := strings.ToUpper(strings.TrimSpace(entityIdentifier))
		if len(trimmedIdentifier) == 0 {
			continue
		}
		sanitized[trimmedIdentifier] = append(sanitized[trimmedIdentifier], sanitizeIssueKeys(issueKeys)...)
	}
	return sanitized
}

func sanitizeIssueKeys(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for index := range raw {
		trimmed := strings.TrimSpace(raw[index])
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}

// teamNames lists the nested team sections of a multi-team settings tree.
func teamNames(settings map[string]any) []string {
	names := make([]string, 0, len(settings))
	for key, value := range settings {
		if _, reserved := reservedSettingKeys[key]; reserved {
			continue
		}
		if _, isSection := value.(map[string]any); !isSection {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
