package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/stellarlinkco/benchkit/api"
	"github.com/stellarlinkco/benchkit/internal/config"
	"github.com/stellarlinkco/benchkit/internal/results"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && *configPath == config.DefaultPath {
			cfg = config.Default()
		} else {
			return err
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := api.NewServer(cfg, store)
	if err != nil {
		return err
	}

	listen := strings.TrimSpace(*addr)
	if listen == "" {
		listen = cfg.Server.Addr
	}
	return srv.Run(listen)
}

func openStore(cfg *config.Config) (*results.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Type)) {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = results.DefaultSQLitePath
		}
		return results.NewStore(path)
	case "memory":
		return results.NewStore(":memory:")
	default:
		return nil, fmt.Errorf("server: unsupported storage type %q", cfg.Storage.Type)
	}
}
