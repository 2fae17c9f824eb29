package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/belay/internal/audit"
	"github.com/temirov/belay/internal/teamconfig"
	"github.com/temirov/belay/internal/utils"
)

const (
	applicationNameConstant                 = "belay"
	applicationShortDescriptionConstant     = "Audit Slack workspace integrations and member authentication"
	applicationLongDescriptionConstant      = "belay reviews the integration log and member list of a Slack workspace, flags risky integration scopes and weak two-factor settings, and reports them to standard output or a Slack channel."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Write logs to this file instead of standard error."
	teamFlagNameConstant                    = "team"
	teamFlagUsageConstant                   = "Team section of a multi-team configuration to audit."
	verboseFlagNameConstant                 = "verbose"
	verboseFlagShorthandConstant            = "v"
	verboseFlagUsageConstant                = "Increase log verbosity (repeatable)."
	logLevelConfigKeyConstant               = "log_level"
	logFormatConfigKeyConstant              = "log_format"
	environmentPrefixConstant               = "BELAY"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationFileNameConstant           = configurationNameConstant + "." + configurationTypeConstant
	userConfigurationDirectoryNameConstant  = "slack"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationTeamFieldConstant          = "team"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	configurationNotLoadedMessageConstant   = "configuration not loaded"
)

// Version is the belay release, set at build time with -ldflags.
var Version = "dev"

// ApplicationOptions customizes the collaborators of an Application.
type ApplicationOptions struct {
	ClientFactory            audit.ClientFactory
	EnvironmentLookup        teamconfig.EnvironmentLookup
	ConfigurationSearchPaths []string
	UserConfigurationPath    string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	teamResolver           *teamconfig.Resolver
	logger                 *zap.Logger
	settings               map[string]any
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	userConfigurationPath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	logFilePath            string
	teamName               string
	verbosity              int
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	return NewApplicationWithOptions(ApplicationOptions{})
}

// NewApplicationWithOptions assembles a CLI application using the provided collaborators.
func NewApplicationWithOptions(options ApplicationOptions) *Application {
	searchPaths := options.ConfigurationSearchPaths
	userConfigurationPath := options.UserConfigurationPath
	if len(searchPaths) == 0 {
		searchPaths, userConfigurationPath = defaultConfigurationLocations(userConfigurationPath)
	}

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		teamResolver:           teamconfig.NewResolver(options.EnvironmentLookup),
		logger:                 zap.NewNop(),
		userConfigurationPath:  userConfigurationPath,
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	auditBuilder := audit.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: application.teamConfiguration,
		ClientFactory:         options.ClientFactory,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: auditBuilder.Run,
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFilePath, logFileFlagNameConstant, "", logFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.teamName, teamFlagNameConstant, "", teamFlagUsageConstant)
	cobraCommand.PersistentFlags().CountVarP(&application.verbosity, verboseFlagNameConstant, verboseFlagShorthandConstant, verboseFlagUsageConstant)
	auditBuilder.BindFlags(cobraCommand)

	auditCommand, auditBuildError := auditBuilder.Build()
	if auditBuildError == nil {
		cobraCommand.AddCommand(auditCommand)
	}

	configurationBuilder := ConfigurationCommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider:  application.teamConfiguration,
		LocalConfigurationPath: filepath.Join(defaultConfigurationSearchPathConstant, configurationFileNameConstant),
		UserConfigurationPath:  application.userConfigurationPath,
		CommandContextAccessor: application.commandContextAccessor,
	}
	configurationCommand, configurationBuildError := configurationBuilder.Build()
	if configurationBuildError == nil {
		cobraCommand.AddCommand(configurationCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func defaultConfigurationLocations(userConfigurationPath string) ([]string, string) {
	if len(userConfigurationPath) > 0 {
		return []string{filepath.Dir(userConfigurationPath), defaultConfigurationSearchPathConstant}, userConfigurationPath
	}

	userConfigurationRoot, userConfigurationError := os.UserConfigDir()
	if userConfigurationError != nil {
		return []string{defaultConfigurationSearchPathConstant}, ""
	}

	userConfigurationDirectory := filepath.Join(userConfigurationRoot, userConfigurationDirectoryNameConstant)
	return []string{userConfigurationDirectory, defaultConfigurationSearchPathConstant}, filepath.Join(userConfigurationDirectory, configurationFileNameConstant)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		logLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		logFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}

	settings, loadedConfiguration, loadError := application.configurationLoader.LoadSettings(application.configurationFilePath, defaultValues)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.settings = settings
	application.configurationMetadata = loadedConfiguration

	logLevel := settingString(settings, logLevelConfigKeyConstant)
	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		logLevel = application.logLevelFlagValue
	}

	logFormat := settingString(settings, logFormatConfigKeyConstant)
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		logFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLoggerWithOptions(utils.LoggerOptions{
		Level:      utils.LogLevel(strings.ToLower(strings.TrimSpace(logLevel))),
		Format:     utils.LogFormat(strings.ToLower(strings.TrimSpace(logFormat))),
		OutputPath: application.logFilePath,
		Verbosity:  application.verbosity,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, logLevel),
		zap.String(configurationLogFormatFieldConstant, logFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationTeamFieldConstant, application.teamName),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithTeamName(updatedContext, application.teamName)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// teamConfiguration resolves the configuration of the team selected with --team.
func (application *Application) teamConfiguration() (teamconfig.Configuration, error) {
	if application.settings == nil {
		return teamconfig.Configuration{}, errors.New(configurationNotLoadedMessageConstant)
	}
	return application.teamResolver.Resolve(application.settings, application.teamName)
}

func settingString(settings map[string]any, key string) string {
	value, exists := settings[key]
	if !exists || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
