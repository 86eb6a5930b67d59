package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhogg/plasticity/internal/engine"
)

// RegisterBuiltins registers /help, /stats and /review.
func RegisterBuiltins(reg *Registry, e *engine.Engine) {
	reg.Register(helpCommand(reg))
	reg.Register(statsCommand(e))
	reg.Register(reviewCommand(e))
}

func helpCommand(reg *Registry) *Command {
	return &Command{
		Name:        "help",
		Description: "List all available commands",
		Usage:       "/help",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			cmds := reg.List()
			var b strings.Builder
			b.WriteString("Available commands:\n")
			for _, c := range cmds {
				fmt.Fprintf(&b, "  /%s — %s\n", c.Name, c.Description)
				if c.Usage != "" {
					fmt.Fprintf(&b, "    Usage: %s\n", c.Usage)
				}
			}
			return &CommandResult{Content: b.String()}, nil
		},
	}
}

func statsCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "stats",
		Description: "Show system-wide counters",
		Usage:       "/stats",
		Handler: func(_ context.Context, _ string, _ *CommandContext) (*CommandResult, error) {
			st := e.Stats()
			var b strings.Builder
			fmt.Fprintf(&b, "Memories: %d (%d consolidated), synapses: %d (%d potentiated, %d depressed)\n",
				st.Store.Traces, st.Store.Consolidated, st.Store.Synapses, st.Store.Potentiated, st.Store.Depressed)
			fmt.Fprintf(&b, "Skills: %d, habits: %d, trauma memories: %d\n",
				st.Skills, st.Habits, st.Traumas)
			fmt.Fprintf(&b, "Learning: %d explicit, %d implicit\n", st.Explicit, st.Implicit)
			fmt.Fprintf(&b, "Bridge: %d registered, %d pending consolidation\n",
				st.Bridge.Registered, st.Bridge.Pending)
			return &CommandResult{Content: b.String(), Data: st}, nil
		},
	}
}

func reviewCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "review",
		Description: "Show the optimal review schedule",
		Usage:       "/review [count]",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			n := 7
			if s := strings.TrimSpace(args); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					return &CommandResult{Content: fmt.Sprintf("Invalid count %q.", s)}, nil
				}
				n = v
			}
			hours := e.ReviewSchedule(n)
			var b strings.Builder
			b.WriteString("Review after:\n")
			for i, h := range hours {
				fmt.Fprintf(&b, "  %d. %.0f hours\n", i+1, h)
			}
			return &CommandResult{Content: b.String(), Data: hours}, nil
		},
	}
}
