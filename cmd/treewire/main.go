// Package main implements the treewire command line client: it connects to
// a treewire server, applies inbound frames to an in-memory target tree, and
// forwards lines from stdin as outbound frames.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c360/treewire"
	"github.com/c360/treewire/conn"
	"github.com/c360/treewire/frame"
	"github.com/c360/treewire/metric"
	"github.com/c360/treewire/relay"
	"github.com/c360/treewire/tree"
)

const (
	Version = "0.1.0"
	appName = "treewire"
)

func main() {
	if err := run(); err != nil {
		slog.Error("client failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)

	targetTree := tree.NewMemoryTree()
	for _, id := range cliCfg.Targets {
		targetTree.Put(id, "")
	}

	var metricsRegistry *metric.MetricsRegistry
	if cliCfg.MetricsAddr != "" {
		metricsRegistry = metric.NewMetricsRegistry()
		go serveMetrics(cliCfg.MetricsAddr, metricsRegistry, logger)
	}

	callbacks := conn.Callbacks{
		OnConnect: func() {
			logger.Info("connected", "address", cliCfg.Client.Address)
		},
		OnDisconnect: func(err error) {
			logger.Info("disconnected", "error", err)
		},
		OnError: func(err error) {
			logger.Error("connection error", "error", err)
		},
	}

	// Optional NATS mirror of inbound traffic.
	if cliCfg.Relay.URL != "" {
		mirror, err := relay.New(cliCfg.Relay, logger)
		if err != nil {
			return err
		}
		defer mirror.Close()
		callbacks.OnMessage = mirror.Mirror
	}

	client, err := treewire.New(cliCfg.Client, targetTree,
		treewire.WithLogger(logger),
		treewire.WithMetrics(metricsRegistry),
		treewire.WithCallbacks(callbacks),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		return err
	}

	go forwardStdin(client, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	client.Disconnect()
	return nil
}

// forwardStdin sends each stdin line as a frame. Lines are raw wire syntax:
// verb|target|payload, with the payload already escaped if needed.
func forwardStdin(client *treewire.Client, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, string(frame.Separator), 3)
		if len(fields) < frame.MinFields {
			logger.Warn("input needs verb|target|payload", "line", line)
			continue
		}
		if err := client.Send(fields[0], fields[1], fields[2]); err != nil {
			logger.Warn("send failed", "error", err)
		}
	}
}

func serveMetrics(addr string, registry *metric.MetricsRegistry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, "OK")
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}
