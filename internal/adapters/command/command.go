// Package command implements the in-game rank commands.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/ranks/internal/domain/tiers"
	"github.com/okian/ranks/pkg/logger"
)

// DeniedMessage is sent to a sender lacking the command's permission.
const DeniedMessage = "You do not have permission to use this command."

// Engine is the part of the progression engine commands drive.
type Engine interface {
	SetSelectedStat(ctx context.Context, playerID, playerName string, stat tiers.Stat) (string, error)
	Selected(playerID string) tiers.Stat
	RecomputeAll(ctx context.Context) (int, error)
	ResetAll(ctx context.Context) error
}

// Sender identifies who ran a command. An empty ID is the console.
type Sender struct {
	ID   string `json:"sender_id"`
	Name string `json:"sender_name"`
}

// Result is the outcome of a command line.
type Result struct {
	Handled  bool     `json:"handled"`
	Messages []string `json:"messages"`
}

func (r *Result) say(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

type handler func(ctx context.Context, s Sender, args []string, out *Result)

type registered struct {
	permission string
	run        handler
}

// Router dispatches command lines.
type Router struct {
	engine   Engine
	perms    Permissions
	commands map[string]registered
	logger   logger.Logger
}

// NewRouter builds a router over engine.
func NewRouter(engine Engine, perms Permissions, log logger.Logger) *Router {
	if log == nil {
		log = logger.Discard()
	}
	r := &Router{engine: engine, perms: perms, logger: log}
	r.commands = map[string]registered{
		"rank":          {permission: PermRank, run: r.rank},
		"rankrecompute": {permission: PermRecompute, run: r.recompute},
		"rankreset":     {permission: PermReset, run: r.reset},
	}
	return r
}

// Execute runs line for sender. Lines naming an unknown command are not
// handled. A permission failure is still handled.
func (r *Router) Execute(ctx context.Context, s Sender, line string) Result {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return Result{}
	}
	name := strings.ToLower(fields[0])
	cmd, ok := r.commands[name]
	if !ok {
		return Result{}
	}

	out := Result{Handled: true}
	if !r.perms.Has(s.ID, cmd.permission) {
		r.logger.Info(ctx, "command denied",
			logger.String("command", name),
			logger.String("sender", s.ID),
			logger.Error(ErrPermissionDenied),
		)
		out.say(DeniedMessage)
		return out
	}
	cmd.run(ctx, s, fields[1:], &out)
	return out
}

func (r *Router) rank(ctx context.Context, s Sender, args []string, out *Result) {
	if s.ID == "" {
		out.say("Only players can choose a rank display.")
		return
	}
	if len(args) == 0 {
		names := make([]string, 0, len(tiers.All()))
		for _, st := range tiers.All() {
			names = append(names, st.DisplayName())
		}
		out.say("Select Rank: %s", strings.Join(names, ", "))
		out.say("Currently displaying %s. Use /rank <stat> to change.", r.engine.Selected(s.ID).DisplayName())
		return
	}

	stat, err := tiers.ParseStat(strings.Join(args, " "))
	if err != nil {
		out.say("Unknown stat %q.", strings.Join(args, " "))
		return
	}
	label, err := r.engine.SetSelectedStat(ctx, s.ID, s.Name, stat)
	if err != nil {
		r.logger.Warn(ctx, "rank selection failed", logger.String("sender", s.ID), logger.Error(err))
		out.say("Could not change your rank display.")
		return
	}
	out.say("Now displaying %s: [%s]", stat.DisplayName(), label)
}

func (r *Router) recompute(ctx context.Context, _ Sender, _ []string, out *Result) {
	n, err := r.engine.RecomputeAll(ctx)
	if err != nil {
		r.logger.Warn(ctx, "recompute failed", logger.Error(err))
		out.say("Recompute stopped after %d promotions: %v", n, err)
		return
	}
	out.say("Recomputed all ranks, %d promotions.", n)
}

func (r *Router) reset(ctx context.Context, _ Sender, _ []string, out *Result) {
	if err := r.engine.ResetAll(ctx); err != nil {
		out.say("Rank data was reset but could not be saved: %v", err)
		return
	}
	out.say("All rank data has been reset.")
}
