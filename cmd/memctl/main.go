package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nidhogg/plasticity/internal/clock"
	"github.com/nidhogg/plasticity/internal/command"
	"github.com/nidhogg/plasticity/internal/config"
	"github.com/nidhogg/plasticity/internal/engine"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "configs/plasticity.json", "config file path")
	user := flag.String("user", "cli-user", "user name for the session")
	flag.Parse()

	logger := zap.NewNop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		cfg = config.Default()
	}

	eng := engine.New(cfg, clock.System(), logger)
	eng.Start()
	defer eng.Stop()

	reg := command.NewRegistry()
	command.RegisterBuiltins(reg, eng)
	command.RegisterMemoryCommands(reg, eng)
	command.RegisterTrackerCommands(reg, eng)

	fmt.Println("Plasticity Memory Console")
	fmt.Printf("User: %s\n", *user)
	fmt.Println("Type 'exit' or 'quit' to leave. Type /help for commands.")
	fmt.Println("---")

	cc := &command.CommandContext{Platform: "cli", UserID: *user, UserName: *user}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if !strings.HasPrefix(input, "/") {
			printError("Commands start with '/'. Type /help for the list.")
			continue
		}

		result, err := reg.Dispatch(context.Background(), input, cc)
		if err != nil {
			printError("Command failed: %v", err)
			continue
		}
		fmt.Println(result.Content)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
