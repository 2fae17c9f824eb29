package audit

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/belay/internal/teamconfig"
)

const (
	auditCommandUseConstant                 = "audit"
	auditCommandShortDescriptionConstant    = "Audit Slack integrations and user authentication"
	auditCommandLongDescriptionConstant     = "audit validates the configured tokens, reviews integration scopes and member two-factor settings, and reports every violation to standard output or a Slack channel."
	outputChannelFlagNameConstant           = "output-channel"
	outputChannelFlagUsageConstant          = "Slack channel receiving the reports (overrides output_channel)."
	skipIntegrationsFlagNameConstant        = "skip-integrations"
	skipIntegrationsFlagUsageConstant       = "Skip the integration audit (overrides skip_integrations)."
	unexpectedArgumentsErrorMessageConstant = "audit does not accept positional arguments"
	configurationErrorTemplateConstant      = "unable to resolve team configuration: %w"
	commandExecutionErrorTemplateConstant   = "audit failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider resolves the configuration of the selected team.
type ConfigurationProvider func() (teamconfig.Configuration, error)

// CommandBuilder assembles the audit command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ClientFactory         ClientFactory
	OutputWriter          io.Writer
}

// Build constructs the audit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	auditCommand := &cobra.Command{
		Use:   auditCommandUseConstant,
		Short: auditCommandShortDescriptionConstant,
		Long:  auditCommandLongDescriptionConstant,
		RunE:  builder.Run,
	}

	builder.BindFlags(auditCommand)

	return auditCommand, nil
}

// BindFlags registers the audit flags on command so the root command can run audits directly.
func (builder *CommandBuilder) BindFlags(command *cobra.Command) {
	command.Flags().String(outputChannelFlagNameConstant, "", outputChannelFlagUsageConstant)
	command.Flags().Bool(skipIntegrationsFlagNameConstant, false, skipIntegrationsFlagUsageConstant)
}

// Run executes one audit for command.
func (builder *CommandBuilder) Run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	service := NewService(builder.ClientFactory, builder.resolveOutputWriter(command), builder.resolveLogger())
	if executionError := service.Run(command.Context(), configuration); executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, executionError)
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (teamconfig.Configuration, error) {
	if builder.ConfigurationProvider == nil {
		return teamconfig.Configuration{}, fmt.Errorf(configurationErrorTemplateConstant, teamconfig.ConfigurationError{Message: missingAPITokenMessageConstant})
	}

	configuration, providerError := builder.ConfigurationProvider()
	if providerError != nil {
		return teamconfig.Configuration{}, fmt.Errorf(configurationErrorTemplateConstant, providerError)
	}

	if command.Flags().Changed(outputChannelFlagNameConstant) {
		outputChannel, flagError := command.Flags().GetString(outputChannelFlagNameConstant)
		if flagError != nil {
			return teamconfig.Configuration{}, flagError
		}
		configuration.OutputChannel = strings.TrimSpace(outputChannel)
	}

	if command.Flags().Changed(skipIntegrationsFlagNameConstant) {
		skipIntegrations, flagError := command.Flags().GetBool(skipIntegrationsFlagNameConstant)
		if flagError != nil {
			return teamconfig.Configuration{}, flagError
		}
		configuration.SkipIntegrations = skipIntegrations
	}

	return configuration, nil
}

func (builder *CommandBuilder) resolveOutputWriter(command *cobra.Command) io.Writer {
	if builder.OutputWriter != nil {
		return builder.OutputWriter
	}
	return command.OutOrStdout()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}
