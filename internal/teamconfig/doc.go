// Package teamconfig resolves the per-team audit configuration consumed by belay.
//
// Settings loaded by utils.ConfigurationLoader may describe a single workspace or
// several workspaces keyed by team name. Resolver selects one team, decodes it into
// Configuration, and applies environment token overrides.
package teamconfig
