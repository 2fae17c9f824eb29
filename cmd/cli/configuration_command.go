package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/belay/internal/audit"
	"github.com/temirov/belay/internal/utils"
)

const (
	configurationCommandUseConstant              = "config"
	configurationCommandShortDescriptionConstant = "Manage belay configuration"
	initCommandUseConstant                       = "init"
	initCommandShortDescriptionConstant          = "Write the default configuration template"
	initCommandLongDescriptionConstant           = "init writes the commented configuration template to ./config.yaml, or to the user configuration directory with --scope user."
	showCommandUseConstant                       = "show"
	showCommandShortDescriptionConstant          = "Print the effective team configuration"
	showCommandLongDescriptionConstant           = "show prints the configuration of the selected team as YAML with tokens redacted."
	scopeFlagNameConstant                        = "scope"
	scopeFlagUsageConstant                       = "Where to write the template: local or user."
	forceFlagNameConstant                        = "force"
	forceFlagUsageConstant                       = "Overwrite an existing configuration file."
	scopeLocalConstant                           = "local"
	scopeUserConstant                            = "user"
	unsupportedScopeTemplateConstant             = "unsupported configuration scope %q"
	userScopeUnavailableMessageConstant          = "user configuration directory is unavailable"
	configurationExistsTemplateConstant          = "configuration file %s already exists; use --force to overwrite"
	configurationWriteErrorTemplateConstant      = "unable to write configuration file %s: %w"
	configurationDirectoryErrorTemplateConstant  = "unable to create configuration directory %s: %w"
	configurationRenderErrorTemplateConstant     = "unable to render configuration: %w"
	configurationWrittenMessageConstant          = "configuration template written"
	configurationWrittenOutputTemplateConstant   = "wrote %s\n"
	configurationSourceCommentTemplateConstant   = "# source: %s\n"
	configurationTeamCommentTemplateConstant     = "# team: %s\n"
	logFieldPathConstant                         = "path"
	configurationDirectoryPermissionsConstant    = 0o700
	configurationFilePermissionsConstant         = 0o600
	noPositionalArgumentsMessageConstant         = "config commands do not accept positional arguments"
)

// ConfigurationCommandBuilder assembles the config command group.
type ConfigurationCommandBuilder struct {
	LoggerProvider         audit.LoggerProvider
	ConfigurationProvider  audit.ConfigurationProvider
	LocalConfigurationPath string
	UserConfigurationPath  string
	CommandContextAccessor utils.CommandContextAccessor
}

// Build constructs the config command with its init and show subcommands.
func (builder *ConfigurationCommandBuilder) Build() (*cobra.Command, error) {
	configurationCommand := &cobra.Command{
		Use:   configurationCommandUseConstant,
		Short: configurationCommandShortDescriptionConstant,
	}

	initCommand := &cobra.Command{
		Use:   initCommandUseConstant,
		Short: initCommandShortDescriptionConstant,
		Long:  initCommandLongDescriptionConstant,
		RunE:  builder.runInit,
	}
	initCommand.Flags().String(scopeFlagNameConstant, scopeLocalConstant, scopeFlagUsageConstant)
	initCommand.Flags().Bool(forceFlagNameConstant, false, forceFlagUsageConstant)

	showCommand := &cobra.Command{
		Use:   showCommandUseConstant,
		Short: showCommandShortDescriptionConstant,
		Long:  showCommandLongDescriptionConstant,
		RunE:  builder.runShow,
	}

	configurationCommand.AddCommand(initCommand, showCommand)

	return configurationCommand, nil
}

func (builder *ConfigurationCommandBuilder) runInit(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(noPositionalArgumentsMessageConstant)
	}

	scope, scopeError := command.Flags().GetString(scopeFlagNameConstant)
	if scopeError != nil {
		return scopeError
	}
	force, forceError := command.Flags().GetBool(forceFlagNameConstant)
	if forceError != nil {
		return forceError
	}

	targetPath, targetError := builder.targetPath(scope)
	if targetError != nil {
		return targetError
	}

	if _, statError := os.Stat(targetPath); statError == nil && !force {
		return fmt.Errorf(configurationExistsTemplateConstant, targetPath)
	}

	targetDirectory := filepath.Dir(targetPath)
	if directoryError := os.MkdirAll(targetDirectory, configurationDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(configurationDirectoryErrorTemplateConstant, targetDirectory, directoryError)
	}

	template, _ := EmbeddedDefaultConfiguration()
	if writeError := os.WriteFile(targetPath, template, configurationFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(configurationWriteErrorTemplateConstant, targetPath, writeError)
	}

	builder.resolveLogger().Info(configurationWrittenMessageConstant, zap.String(logFieldPathConstant, targetPath))
	_, printError := fmt.Fprintf(command.OutOrStdout(), configurationWrittenOutputTemplateConstant, targetPath)
	return printError
}

func (builder *ConfigurationCommandBuilder) targetPath(scope string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(scope)) {
	case scopeLocalConstant:
		return builder.LocalConfigurationPath, nil
	case scopeUserConstant:
		if len(builder.UserConfigurationPath) == 0 {
			return "", errors.New(userScopeUnavailableMessageConstant)
		}
		return builder.UserConfigurationPath, nil
	default:
		return "", fmt.Errorf(unsupportedScopeTemplateConstant, scope)
	}
}

func (builder *ConfigurationCommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(noPositionalArgumentsMessageConstant)
	}

	configuration, configurationError := builder.ConfigurationProvider()
	if configurationError != nil {
		return configurationError
	}

	rendered, renderError := yaml.Marshal(configuration.Redacted())
	if renderError != nil {
		return fmt.Errorf(configurationRenderErrorTemplateConstant, renderError)
	}

	outputWriter := command.OutOrStdout()
	if configurationFilePath, available := builder.CommandContextAccessor.ConfigurationFilePath(command.Context()); available && len(configurationFilePath) > 0 {
		if _, printError := fmt.Fprintf(outputWriter, configurationSourceCommentTemplateConstant, configurationFilePath); printError != nil {
			return printError
		}
	}
	if teamName, available := builder.CommandContextAccessor.TeamName(command.Context()); available && len(teamName) > 0 {
		if _, printError := fmt.Fprintf(outputWriter, configurationTeamCommentTemplateConstant, teamName); printError != nil {
			return printError
		}
	}

	_, writeError := outputWriter.Write(rendered)
	return writeError
}

func (builder *ConfigurationCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}
