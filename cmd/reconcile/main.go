// Command reconcile runs one reconcile pass against the configured stores
// and ledger, or checks and syncs a single vetting request.
//
//	reconcile sweep [-caller 0x..]
//	reconcile drift -id <vetting id> [-caller 0x..]
//	reconcile sync  -id <vetting id> [-caller 0x..]
//	reconcile repair -id <vetting id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"dhruva/internal/bootstrap"
	"dhruva/internal/platform/config"
	"dhruva/internal/platform/logger"
	"dhruva/internal/reconcile"
	"dhruva/pkg/domain"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	cmd := os.Args[1]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	id := fs.String("id", "", "Vetting request ID")
	caller := fs.String("caller", "", "Ledger caller address (defaults to the operator)")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.FromEnv()
	if err != nil {
		fatal("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger.New(cfg.LogLevel))
	if err != nil {
		fatal("build: %v", err)
	}
	defer app.Close()

	var out any
	switch cmd {
	case "sweep":
		w, werr := reconcile.NewWorker(app.Reconcile, reconcile.WithCaller(*caller), reconcile.WithWorkerLogger(app.Logger))
		if werr != nil {
			fatal("%v", werr)
		}
		out, err = w.RunOnce(ctx)
	case "drift":
		out, err = app.Reconcile.CheckDrift(ctx, mustID(*id), *caller)
	case "sync":
		out, err = app.Reconcile.SyncAuthorization(ctx, mustID(*id), *caller)
	case "repair":
		out, err = app.Reconcile.RepairAccount(ctx, mustID(*id))
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fatal("%s: %v", cmd, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func mustID(raw string) domain.VettingID {
	id, err := domain.ParseVettingID(raw)
	if err != nil {
		fatal("-id: %v", err)
	}
	return id
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: reconcile <sweep|drift|sync|repair> [-id <vetting id>] [-caller <address>]")
}
