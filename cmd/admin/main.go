// Package main starts the feature admin web process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	admincmd "github.com/louisbranch/featureadmin/internal/cmd/admin"
	"github.com/louisbranch/featureadmin/internal/platform/config"
)

func main() {
	cfg, err := admincmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := admincmd.Run(ctx, cfg); err != nil {
		config.Exitf("admin: %v", err)
	}
}
