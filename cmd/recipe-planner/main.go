package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"recipe-planner/internal/app"
	"recipe-planner/internal/config"
	"recipe-planner/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve", "import-url", "metrics-cleanup":
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if cmd == "serve" {
		opts = append(opts, app.WithTelegram())
	}
	application, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	switch cmd {
	case "serve":
		err = application.Serve(ctx)
	case "import-url":
		err = importURL(ctx, application, args)
	case "metrics-cleanup":
		err = cleanup(ctx, application, args)
	}
	if err != nil {
		log.Error("command failed", zap.String("command", cmd), zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}

func importURL(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("import-url", flag.ExitOnError)
	userID := fs.String("user", "", "user id the recipe belongs to")
	fs.Parse(args)
	if *userID == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: recipe-planner import-url -user <id> <url>")
	}

	rec, err := a.ImportURL(ctx, *userID, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Imported %q (%s) with %d ingredients.\n", rec.Title, rec.ID, len(rec.Ingredients))
	return nil
}

func cleanup(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	affected, err := a.CleanupMetrics(ctx, *days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}

func printUsage() {
	fmt.Println("Usage: recipe-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the HTTP API, video workers and Telegram webhook")
	fmt.Println("  import-url         Import a recipe page for a user: import-url -user <id> <url>")
	fmt.Println("  metrics-cleanup    Remove old metric records: metrics-cleanup -days N")
	fmt.Println("\nSet CONFIG_FILE to read a TOML config file before the environment.")
}
