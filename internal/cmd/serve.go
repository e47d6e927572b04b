package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dotcommander/agentgw/internal/agent"
	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/errs"
	imcp "github.com/dotcommander/agentgw/internal/mcp"
	"github.com/dotcommander/agentgw/internal/server"
	"github.com/dotcommander/agentgw/internal/stream"
	"github.com/dotcommander/agentgw/internal/tools"
)

func (rt *runtime) serve(ctx context.Context) error {
	logger, err := newLogger(os.Stderr, rt.cfg.LogLevel, rt.cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	system, err := config.LoadMsg(ctx, rt.cfg.System)
	if err != nil {
		return errs.Wrap(err, "Could not load the system message.")
	}

	source, closeSource, err := rt.source(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	srv := server.New(server.Config{
		Addr:            rt.cfg.Addr(),
		Model:           rt.cfg.Model,
		System:          system,
		ShutdownTimeout: rt.cfg.ShutdownTimeout,
	}, source)
	return srv.Run(ctx)
}

// source returns the event source for the gateway: a recorded stream when
// --replay is set, the agent runtime otherwise.
func (rt *runtime) source(ctx context.Context) (stream.Source, func(), error) {
	if rt.cfg.Replay != "" {
		f, err := os.Open(rt.cfg.Replay)
		if err != nil {
			return nil, nil, errs.Wrapf(err, "Could not open replay file %s.", rt.cfg.Replay)
		}
		slog.InfoContext(ctx, "serve: replaying recorded events", "path", rt.cfg.Replay)
		return stream.Replay(f), func() { _ = f.Close() }, nil
	}

	reg, err := rt.registry(ctx)
	if err != nil {
		return nil, nil, err
	}
	src, err := agent.New(ctx, &rt.cfg, reg)
	if err != nil {
		return nil, nil, err
	}
	return src, func() {}, nil
}

// registry builds the tool registry from the enabled built-ins and the tools
// of every enabled MCP server.
func (rt *runtime) registry(ctx context.Context) (*tools.Registry, error) {
	all, err := tools.Builtins(rt.cfg.Tools, time.Now)
	if err != nil {
		return nil, errs.Wrap(err, "Invalid tools setting.")
	}
	mcpTools, err := imcp.New(&rt.cfg).AgentTools(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := tools.NewRegistry(append(all, mcpTools...)...)
	if err != nil {
		return nil, errs.Wrap(err, "Could not register tools.")
	}
	return reg, nil
}
