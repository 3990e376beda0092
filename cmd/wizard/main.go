// Command wizard runs the survey wizard interactively in a terminal,
// in-process against a memory session store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/logger"
	"github.com/stemsi/surveylab/internal/repository"
	"github.com/stemsi/surveylab/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// Logs go to stderr so they do not interleave with the prompts.
	log := logger.New(os.Stderr, cfg.LogLevel, "pretty")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Initialize Services ──────────────────────────────────────────
	sessions := repository.NewMemorySessionRepository(0)
	authService := service.NewAuthService(cfg, sessions, log)
	wizardService := service.NewWizardService(
		sessions,
		repository.NopReportPublisher{},
		service.NewPipeline(cfg),
		service.NewSimulatorFactory(cfg),
		log,
	)

	// ─── Run ───────────────────────────────────────────────────────────
	stdinFD := int(syscall.Stdin)
	readPassword := func(r *bufio.Reader) (string, error) {
		if !term.IsTerminal(stdinFD) {
			return readLine(r)
		}
		b, err := term.ReadPassword(stdinFD)
		fmt.Println()
		return string(b), err
	}

	app := newApp(authService, wizardService, bufio.NewReader(os.Stdin), os.Stdout, readPassword)
	if err := app.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
