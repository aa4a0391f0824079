// Package version holds the engine version reported in the User-Agent.
package version

// Version is overridden at release build time via -ldflags.
var Version = "0.0.0-dev"
