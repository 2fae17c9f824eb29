// Package cli constructs the belay command-line interface, wiring the Cobra
// command hierarchy, the Viper configuration loader, and zap logging. Running
// belay without a subcommand audits the selected Slack workspace.
package cli
