package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/userstore/internal/cli"
	"github.com/dmitrijs2005/userstore/internal/config"
	"github.com/dmitrijs2005/userstore/internal/cryptox"
	"github.com/dmitrijs2005/userstore/internal/logging"
	"github.com/dmitrijs2005/userstore/internal/userstore"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel)

	hasher, err := cryptox.NewHasher(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	store, err := userstore.Open(ctx, hasher, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer store.Close()

	cli.NewApp(store, os.Stdin, os.Stdout).Run(ctx)
}
