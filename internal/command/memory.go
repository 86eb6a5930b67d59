package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nidhogg/plasticity/internal/engine"
)

// RegisterMemoryCommands registers /remember, /recall, /associate,
// /reinforce and /consolidate.
func RegisterMemoryCommands(reg *Registry, e *engine.Engine) {
	reg.Register(rememberCommand(e))
	reg.Register(recallCommand(e))
	reg.Register(associateCommand(e))
	reg.Register(reinforceCommand(e))
	reg.Register(consolidateCommand(e))
}

func rememberCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "remember",
		Description: "Store a new memory",
		Usage:       "/remember <id> <content>",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
			if len(parts) < 2 {
				return &CommandResult{Content: "Usage: /remember <id> <content>"}, nil
			}
			tr := e.Bridge.Register(parts[0], parts[1], 0.5, nil)
			return &CommandResult{
				Content: fmt.Sprintf("Memory %q stored (weight %.2f).", parts[0], tr.Weight),
				Data:    tr,
			}, nil
		},
	}
}

func recallCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "recall",
		Description: "Access a memory, strengthening it",
		Usage:       "/recall <id>",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			id := strings.TrimSpace(args)
			if id == "" {
				return &CommandResult{Content: "Usage: /recall <id>"}, nil
			}
			tr := e.Bridge.Access(id)
			if tr == nil {
				return &CommandResult{Content: fmt.Sprintf("No memory found for %q.", id)}, nil
			}
			retention, _ := e.Bridge.Retention(id)
			return &CommandResult{
				Content: fmt.Sprintf("%q: weight %.2f, accessed %d times, retention %.2f.",
					id, tr.Weight, tr.AccessCount, retention),
				Data: tr,
			}, nil
		},
	}
}

func associateCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "associate",
		Description: "Link two memories",
		Usage:       "/associate <id_a> <id_b>",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.Fields(args)
			if len(parts) != 2 {
				return &CommandResult{Content: "Usage: /associate <id_a> <id_b>"}, nil
			}
			if !e.Bridge.Associate(parts[0], parts[1]) {
				return &CommandResult{Content: "One or both memories not found."}, nil
			}
			return &CommandResult{Content: fmt.Sprintf("Associated %q and %q.", parts[0], parts[1])}, nil
		},
	}
}

func reinforceCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "reinforce",
		Description: "Reinforce a memory",
		Usage:       "/reinforce <id> [strength] [source]",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.Fields(args)
			if len(parts) < 1 {
				return &CommandResult{Content: "Usage: /reinforce <id> [strength] [source]"}, nil
			}
			strength := 0.5
			if len(parts) > 1 {
				v, err := strconv.ParseFloat(parts[1], 64)
				if err != nil {
					return &CommandResult{Content: fmt.Sprintf("Invalid strength %q.", parts[1])}, nil
				}
				strength = v
			}
			source := "manual"
			if len(parts) > 2 {
				source = parts[2]
			}
			tr, err := e.Bridge.Reinforce(parts[0], strength, "", source)
			if err != nil {
				return &CommandResult{Content: fmt.Sprintf("Failed: %v", err)}, nil
			}
			if tr == nil {
				return &CommandResult{Content: fmt.Sprintf("No memory found for %q.", parts[0])}, nil
			}
			return &CommandResult{
				Content: fmt.Sprintf("Reinforced %q, weight now %.2f.", parts[0], tr.Weight),
				Data:    tr,
			}, nil
		},
	}
}

func consolidateCommand(e *engine.Engine) *Command {
	return &Command{
		Name:        "consolidate",
		Description: "Consolidate one memory, or run a full pass",
		Usage:       "/consolidate [id] [intensity]",
		Handler: func(_ context.Context, args string, _ *CommandContext) (*CommandResult, error) {
			parts := strings.Fields(args)
			if len(parts) == 0 {
				done := e.Scheduler.ConsolidateNow()
				return &CommandResult{
					Content: fmt.Sprintf("Consolidation pass complete, %d memories transitioned.", len(done)),
					Data:    done,
				}, nil
			}
			intensity := 0.5
			if len(parts) > 1 {
				v, err := strconv.ParseFloat(parts[1], 64)
				if err != nil {
					return &CommandResult{Content: fmt.Sprintf("Invalid intensity %q.", parts[1])}, nil
				}
				intensity = v
			}
			tr, err := e.Bridge.Consolidate(parts[0], intensity, "normal")
			if err != nil {
				return &CommandResult{Content: fmt.Sprintf("Failed: %v", err)}, nil
			}
			if tr == nil {
				return &CommandResult{Content: fmt.Sprintf("No memory found for %q.", parts[0])}, nil
			}
			return &CommandResult{
				Content: fmt.Sprintf("Consolidated %q, strength now %.2f.", parts[0], tr.ConsolidationStrength),
				Data:    tr,
			}, nil
		},
	}
}
