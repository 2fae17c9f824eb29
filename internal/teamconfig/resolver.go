package teamconfig

import (
	"fmt"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
)

const (
	// EnvironmentAPIToken overrides the configured audit token.
	EnvironmentAPIToken = "SLACK_API_TOKEN"
	// EnvironmentBotToken overrides the configured notification token.
	EnvironmentBotToken = "SLACK_BOT_TOKEN"

	listSeparatorConstant                = ","
	mapstructureTagNameConstant          = "mapstructure"
	missingAPITokenMessageConstant       = "api token not configured"
	teamRequiredTemplateConstant         = "configuration defines multiple teams (%s); select one with --team"
	teamNotFoundTemplateConstant         = "team %q not found in configuration"
	teamSectionInvalidTemplateConstant   = "team %q section is not a mapping"
	decoderCreationErrorTemplateConstant = "unable to create configuration decoder: %v"
	decodeErrorTemplateConstant          = "unable to decode configuration: %v"
	teamNameSeparatorConstant            = ", "
)

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// Resolver turns loaded settings into the Configuration for one team.
type Resolver struct {
	environmentLookup EnvironmentLookup
}

// NewResolver constructs a Resolver. A nil lookup reads the process environment.
func NewResolver(environmentLookup EnvironmentLookup) *Resolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}
	return &Resolver{environmentLookup: resolvedEnvironmentLookup}
}

// Resolve selects the team section named teamName (or the only one available), decodes it,
// applies environment token overrides, and verifies an API token is present.
func (resolver *Resolver) Resolve(settings map[string]any, teamName string) (Configuration, error) {
	section, selectionError := selectTeamSection(settings, strings.TrimSpace(teamName))
	if selectionError != nil {
		return Configuration{}, selectionError
	}

	configuration, decodeError := decodeSection(section)
	if decodeError != nil {
		return Configuration{}, decodeError
	}

	configuration = resolver.applyEnvironmentOverrides(configuration).sanitize()

	if len(configuration.APIToken) == 0 {
		return Configuration{}, ConfigurationError{Message: missingAPITokenMessageConstant}
	}

	return configuration, nil
}

func selectTeamSection(settings map[string]any, teamName string) (map[string]any, error) {
	if _, singleTeam := settings[apiTokenKeyConstant]; singleTeam {
		if len(teamName) > 0 {
			return nil, ConfigurationError{Message: fmt.Sprintf(teamNotFoundTemplateConstant, teamName)}
		}
		return settings, nil
	}

	availableTeams := teamNames(settings)

	if len(teamName) == 0 {
		switch len(availableTeams) {
		case 0:
			return settings, nil
		case 1:
			teamName = availableTeams[0]
		default:
			return nil, ConfigurationError{Message: fmt.Sprintf(teamRequiredTemplateConstant, strings.Join(availableTeams, teamNameSeparatorConstant))}
		}
	}

	for _, availableTeam := range availableTeams {
		if !strings.EqualFold(availableTeam, teamName) {
			continue
		}
		section, isSection := settings[availableTeam].(map[string]any)
		if !isSection {
			return nil, ConfigurationError{Message: fmt.Sprintf(teamSectionInvalidTemplateConstant, teamName)}
		}
		return section, nil
	}

	return nil, ConfigurationError{Message: fmt.Sprintf(teamNotFoundTemplateConstant, teamName)}
}

func decodeSection(section map[string]any) (Configuration, error) {
	var configuration Configuration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(listSeparatorConstant),
		WeaklyTypedInput: true,
		TagName:          mapstructureTagNameConstant,
		Result:           &configuration,
	})
	if decoderError != nil {
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(decoderCreationErrorTemplateConstant, decoderError)}
	}
	if decodeError := decoder.Decode(section); decodeError != nil {
		return Configuration{}, ConfigurationError{Message: fmt.Sprintf(decodeErrorTemplateConstant, decodeError)}
	}
	return configuration, nil
}

// applyEnvironmentOverrides lets environment tokens win over file tokens. Overriding only the
// API token clears the file bot token so credentials from different sources are never mixed.
func (resolver *Resolver) applyEnvironmentOverrides(configuration Configuration) Configuration {
	overridden := configuration

	apiToken, apiTokenPresent := resolver.lookupNonEmpty(EnvironmentAPIToken)
	botToken, botTokenPresent := resolver.lookupNonEmpty(EnvironmentBotToken)

	if apiTokenPresent {
		overridden.APIToken = apiToken
		overridden.BotToken = ""
	}
	if botTokenPresent {
		overridden.BotToken = botToken
	}

	return overridden
}

func (resolver *Resolver) lookupNonEmpty(key string) (string, bool) {
	value, found := resolver.environmentLookup(key)
	if !found {
		return "", false
	}
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return "", false
	}
	return trimmedValue, true
}
