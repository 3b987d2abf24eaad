/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package main is the entry point for the ToyQuery server.

ToyQuery Server Architecture Overview:
======================================

  1. Storage Layer (internal/storage):
     - Store: one directory per database, one .tab file per table
     - LockManager: per-database readers/writer locks

  2. Command Layer (internal/sql):
     - Lexer, Parser: turn a command line into a Statement
     - Executor: runs statements against the Store

  3. Access Layer:
     - internal/server: line protocol over TCP
     - internal/httpapi: JSON gateway, health and metrics (optional)
     - internal/discovery: mDNS advertisement (optional)
     - internal/backup: scheduled snapshots (optional)

Startup Flow:
=============

  1. Load configuration: defaults, file, environment, then flags
  2. Print the banner and validate the configuration
  3. Build the store, executor and access components
  4. Run every component until SIGINT or SIGTERM; SIGHUP reloads the
     configuration file and applies the new log level

Usage Examples:
===============

	toyquery -data-dir ./data
	toyquery -port 9000 -http :8080 -discover
	toyquery -init
	toyquery -hash-password < password.txt
*/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"toyquery/internal/auth"
	"toyquery/internal/backup"
	"toyquery/internal/banner"
	"toyquery/internal/config"
	"toyquery/internal/discovery"
	"toyquery/internal/health"
	"toyquery/internal/httpapi"
	"toyquery/internal/logging"
	"toyquery/internal/metrics"
	"toyquery/internal/server"
	"toyquery/internal/sql"
	"toyquery/internal/storage"
	"toyquery/internal/wizard"
)

const shutdownTimeout = 5 * time.Second

func printUsage() {
	fmt.Fprintf(os.Stderr, "ToyQuery Server v%s\n\n", banner.Version)
	fmt.Fprintln(os.Stderr, "USAGE:")
	fmt.Fprintln(os.Stderr, "  toyquery [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "OPTIONS:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "ENVIRONMENT VARIABLES:")
	fmt.Fprintln(os.Stderr, "  TOYQUERY_CONFIG          Configuration file")
	fmt.Fprintln(os.Stderr, "  TOYQUERY_PORT            Line protocol port")
	fmt.Fprintln(os.Stderr, "  TOYQUERY_DATA_DIR        Data directory")
	fmt.Fprintln(os.Stderr, "  TOYQUERY_PASSWORD_HASH   bcrypt hash enabling authentication")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "CONNECTING:")
	fmt.Fprintln(os.Stderr, "  toyquery-shell -H localhost -p 8888")
}

func main() {
	cfgMgr := config.Global()
	if err := cfgMgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := cfgMgr.Get()

	port := flag.Int("port", cfg.Port, "Line protocol port")
	dataDir := flag.String("data-dir", cfg.DataDir, "Directory for database storage")
	configFile := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", cfg.LogJSON, "Enable JSON log output")
	httpAddr := flag.String("http", "", "Enable the HTTP gateway on this address")
	discover := flag.Bool("discover", cfg.Discovery.Enabled, "Advertise the server over mDNS")
	runWizard := flag.Bool("init", false, "Run the interactive setup and write a configuration file")
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin, print its bcrypt hash and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("toyquery version %s\n", banner.Version)
		return
	}
	if *hashPassword {
		if err := printPasswordHash(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *runWizard {
		if _, err := wizard.New(os.Stdin, os.Stdout).RunAndSave(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *configFile != "" {
		if err := cfgMgr.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
		cfgMgr.LoadFromEnv()
		cfg = cfgMgr.Get()
	}

	// Only flags the user set override file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "data-dir":
			cfg.DataDir = *dataDir
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-json":
			cfg.LogJSON = *logJSON
		case "http":
			cfg.HTTP.Enabled = true
			cfg.HTTP.Addr = *httpAddr
		case "discover":
			cfg.Discovery.Enabled = *discover
		}
	})

	banner.PrintServerWithConfig(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfgMgr.Set(cfg)

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	log := logging.NewLogger("main")

	if err := run(cfgMgr, log); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// run builds every component from the current configuration and blocks
// until a shutdown signal arrives or a component fails.
func run(cfgMgr *config.Manager, log *logging.Logger) error {
	cfg := cfgMgr.Get()

	encoder, err := storage.ParseEncoding(cfg.Storage.Encoding)
	if err != nil {
		return err
	}
	collator, err := storage.ParseCollation(cfg.Storage.Collation, cfg.Storage.Locale)
	if err != nil {
		return err
	}
	store, err := storage.NewStore(cfg.DataDir, encoder)
	if err != nil {
		return err
	}

	m := metrics.Get()
	executor := sql.NewExecutor(store, sql.Options{
		Collator:    collator,
		LockTimeout: cfg.LockTimeoutDuration(),
		Metrics:     m,
	})
	authenticator := auth.NewAuthenticator(cfg.Auth.PasswordHash, m)

	checker := health.NewChecker(banner.Version)
	checker.RegisterCheck("data_dir", health.DataDirCheck(cfg.DataDir))

	log.Info("ToyQuery server starting",
		"version", banner.Version,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"encoding", encoder.Name(),
		"collation", collator.Name(),
		"auth", authenticator.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	srv := server.New(fmt.Sprintf(":%d", cfg.Port), executor, server.Options{
		Auth:    authenticator,
		Metrics: m,
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Stop()
	})

	var scheduler *backup.Scheduler
	if cfg.Backup.Enabled {
		scheduler, err = backup.NewScheduler(store, backup.Options{
			Dir:         cfg.BackupDir(),
			Schedule:    cfg.Backup.Schedule,
			Keep:        cfg.Backup.Keep,
			LockTimeout: cfg.LockTimeoutDuration(),
			Metrics:     m,
		})
		if err != nil {
			return err
		}
		checker.RegisterCheck("backup", health.BackupCheck(scheduler.LastError))
		scheduler.Start()
		g.Go(func() error {
			<-ctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	if cfg.HTTP.Enabled {
		gateway := httpapi.New(executor, httpapi.Options{
			Auth:        authenticator,
			Health:      checker,
			Metrics:     m,
			CORSOrigins: cfg.HTTP.CORSOrigins,
		})
		g.Go(func() error { return gateway.ListenAndServe(cfg.HTTP.Addr) })
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return gateway.Shutdown(shutdownCtx)
		})
	}

	if cfg.Discovery.Enabled {
		httpAdvertised := ""
		if cfg.HTTP.Enabled {
			httpAdvertised = cfg.HTTP.Addr
		}
		advertiser := discovery.NewAdvertiser(discovery.Config{
			Instance: cfg.DiscoveryInstance(),
			Port:     cfg.Port,
			HTTPAddr: httpAdvertised,
			Version:  banner.Version,
		})
		if err := advertiser.Start(); err != nil {
			// Discovery is a convenience; the server still runs without it.
			log.Warn("Failed to start service discovery", "error", err)
		} else {
			g.Go(func() error {
				<-ctx.Done()
				return advertiser.Stop()
			})
		}
	}

	cfgMgr.OnReload(func(c *config.Config) {
		logging.SetGlobalLevel(logging.ParseLevel(c.LogLevel))
		logging.SetJSONMode(c.LogJSON)
		log.Info("Configuration reloaded", "log_level", c.LogLevel)
	})
	g.Go(func() error {
		watchReload(ctx, cfgMgr, log)
		return nil
	})

	select {
	case <-srv.Ready():
		log.Info("ToyQuery server is ready", "addr", srv.Addr().String())
	case <-ctx.Done():
	}

	err = g.Wait()
	log.Info("ToyQuery server stopped")
	return err
}

// watchReload reloads the configuration file on SIGHUP. Only settings that
// can change at runtime take effect.
func watchReload(ctx context.Context, cfgMgr *config.Manager, log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := cfgMgr.Reload(); err != nil {
				log.Error("Failed to reload configuration", "error", err)
			}
		}
	}
}

// printPasswordHash reads one password and prints its bcrypt hash for
// auth.password_hash.
func printPasswordHash() error {
	var password string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("no password on stdin")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
