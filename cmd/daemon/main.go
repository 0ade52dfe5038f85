package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"roman-numerals/go-backend/internal/composition/daemonserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "", "HTTP/JSON-RPC listen address (default 127.0.0.1:8787)")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-Roman-Token (optional, \"auto\" generates one)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("roman-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := daemonserver.New(daemonserver.Options{
		ConfigPath: *configPath,
		RPCAddr:    *rpcAddr,
		RPCToken:   *rpcToken,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("roman-daemon failed to initialize: %v", err)
	}
	if err := d.Run(ctx); err != nil {
		log.Fatalf("roman-daemon failed: %v", err)
	}
}
