package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhogg/plasticity/internal/engine"
)

// RegisterTrackerCommands registers /practice and /habit.
func RegisterTrackerCommands(reg *Registry, e *engine.Engine) {
	reg.Register(practiceCommand(e))
	reg.Register(habitCommand(e))
}

func practiceCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "practice",
		Description: "Practice a skill (started on first use)",
		Usage:       "/practice <skill> [ok|fail]",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.Fields(args)
			if len(parts) < 1 {
				return &CommandResult{Content: "Usage: /practice <skill> [ok|fail]"}, nil
			}
			id := parts[0]
			success := true
			if len(parts) > 1 && parts[1] == "fail" {
				success = false
			}
			if _, ok := e.Skills.Get(id); !ok {
				e.Skills.Start(id, 0.1, 0.5)
			}
			perf, _ := e.Skills.Practice(id, success)
			sk, _ := e.Skills.Get(id)
			status := ""
			if sk.Automatized {
				status = " [automatized]"
			}
			return &CommandResult{
				Content: fmt.Sprintf("%q: performance %.3f after %d sessions%s.",
					id, perf, sk.PracticeCount, status),
				Data: sk,
			}, nil
		},
	}
}

func habitCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "habit",
		Description: "Reinforce a habit in a cue context",
		Usage:       "/habit <id> <context> [reward]",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.Fields(args)
			if len(parts) < 2 {
				return &CommandResult{Content: "Usage: /habit <id> <context> [reward]"}, nil
			}
			reward := 0.5
			if len(parts) > 2 {
				v, err := strconv.ParseFloat(parts[2], 64)
				if err != nil {
					return &CommandResult{Content: fmt.Sprintf("Invalid reward %q.", parts[2])}, nil
				}
				reward = v
			}
			if _, ok := e.Habits.Get(parts[0]); !ok {
				e.Habits.Start(parts[0], parts[1])
			}
			automaticity, _ := e.Habits.Reinforce(parts[0], parts[1], reward, true)
			status := ""
			if e.Habits.IsFormed(parts[0]) {
				status = " [formed]"
			}
			return &CommandResult{
				Content: fmt.Sprintf("%q: automaticity %.3f%s.", parts[0], automaticity, status),
				Data:    map[string]interface{}{"automaticity": automaticity},
			}, nil
		},
	}
}
