package cmd

import (
	"log/slog"

	"github.com/aferraz/driveline/pkg/adapters/discord"
	"github.com/aferraz/driveline/pkg/adapters/notion"
	"github.com/aferraz/driveline/pkg/adapters/slack"
	"github.com/aferraz/driveline/pkg/registry"
)

// NewRegistry builds the adapter registry with every built-in step kind.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(discord.NewAdapter())
	reg.Register(slack.NewAdapter())
	reg.Register(notion.NewAdapter())

	return reg
}
