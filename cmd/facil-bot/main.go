// ABOUTME: Entry point for facil-bot, the chat ordering bot
// ABOUTME: Wires store, conversation engine, Matrix transport and admin API together

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/Luk-bit/Facil-assim-food/internal/api"
	"github.com/Luk-bit/Facil-assim-food/internal/auth"
	"github.com/Luk-bit/Facil-assim-food/internal/bot"
	"github.com/Luk-bit/Facil-assim-food/internal/catalog"
	"github.com/Luk-bit/Facil-assim-food/internal/config"
	"github.com/Luk-bit/Facil-assim-food/internal/matrix"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

// Version is set at build time.
var version = "dev"

const banner = `
  __            _ _       _           _
 / _| __ _  ___(_) |     | |__   ___ | |_
| |_ / _' |/ __| | |_____| '_ \ / _ \| __|
|  _| (_| | (__| | |_____| |_) | (_) | |_
|_|  \__,_|\___|_|_|     |_.__/ \___/ \__|
`

// shutdownTimeout bounds graceful shutdown after the signal context is done.
const shutdownTimeout = 5 * time.Second

// getDataPath returns the path to the facil data directory.
// Priority: XDG_DATA_HOME/facil > ~/.local/share/facil
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "facil")
}

func usage() {
	fmt.Println("Usage: facil-bot [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                          Start the bot (default)")
	fmt.Println("  init [path]                    Write a starter config (.toml or .yaml)")
	fmt.Println("  health                         Check the admin API health")
	fmt.Println("  token --name NAME [--ttl DUR]  Mint an admin API bearer token")
}

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit(os.Args[2:])
	case "health":
		err = runHealth(ctx)
	case "token":
		err = runToken(os.Args[2:])
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := config.Path()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)
	encryption := cfg.Matrix.Encryption || cfg.Matrix.RecoveryKey != ""
	printStartup(configPath, cfg, encryption)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	client, err := matrix.NewClient(matrix.Options{
		Homeserver:   cfg.Matrix.Homeserver,
		UserID:       cfg.Matrix.UserID,
		AccessToken:  cfg.Matrix.AccessToken,
		Username:     cfg.Matrix.Username,
		Password:     cfg.Matrix.Password,
		AllowedRooms: cfg.Matrix.AllowedRooms,
		PuppetPrefix: cfg.Matrix.PuppetPrefix,
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	// The establishment is fixed for the life of the process
	identity := cfg.Ordering.BotPhone
	if identity == "" {
		identity = client.Identity()
	}
	resolver := catalog.NewResolver(db, cfg.Ordering.FallbackEstablishmentID, logger)
	estabID, err := resolver.Resolve(ctx, identity)
	if err != nil {
		return fmt.Errorf("resolving establishment: %w", err)
	}
	logger.Info("serving establishment", "estab_id", estabID, "identity", identity)

	pricing := bot.Pricing{
		EstablishmentID: estabID,
		DeliveryFee:     cfg.Ordering.DeliveryFee,
		Currency:        cfg.Ordering.Currency,
	}
	gateway := outbound.NewGateway(logger)
	machine := bot.NewMachine(catalog.New(db), resolver, pricing, logger)
	finalizer := bot.NewFinalizer(gateway, db, pricing, logger)
	engine := bot.NewEngine(machine, finalizer, gateway, cfg.Ordering.IdleTimeout, logger)

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			return fmt.Errorf("creating token verifier: %w", err)
		}
		verifier = v
	} else {
		logger.Warn("admin API authentication disabled (auth.jwt_secret not set)")
	}

	server := api.NewServer(api.Options{
		Addr: cfg.Server.HTTPAddr,
		Tailscale: api.TailscaleOptions{
			Enabled:   cfg.Tailscale.Enabled,
			Hostname:  cfg.Tailscale.Hostname,
			AuthKey:   cfg.Tailscale.AuthKey,
			StateDir:  cfg.Tailscale.StateDir,
			Ephemeral: cfg.Tailscale.Ephemeral,
		},
		Verifier: verifier,
		Orders:   db,
	}, gateway, logger)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting admin API: %w", err)
	}
	defer gracefulShutdown(server, logger)

	// Login is required before crypto setup
	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("matrix login: %w", err)
	}

	if encryption {
		dataDir := cfg.Matrix.DataDir
		if dataDir == "" {
			dataDir = getDataPath()
		}
		cr, err := matrix.EnableCrypto(ctx, client, cfg.Matrix.RecoveryKey, dataDir, logger)
		if err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		defer cr.Close()
	} else {
		logger.Info("encryption disabled")
	}

	gateway.Attach(client)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	runErr := make(chan error, 1)
	go func() {
		runErr <- client.Run(runCtx, engine)
	}()

	logger.Info("facil-bot started", "http_addr", cfg.Server.HTTPAddr, "idle_timeout", cfg.Ordering.IdleTimeout)

	select {
	case err = <-runErr:
	case err = <-server.Errors():
		stop()
		<-runErr
	}

	// Finish in-flight conversations while the transport can still send
	logger.Info("shutting down", "active_sessions", engine.ActiveSessions())
	engine.Close()
	return err
}

// gracefulShutdown stops the admin API with a fresh context and timeout.
// The serve context is already canceled by the time this runs.
func gracefulShutdown(server *api.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("admin API shutdown", "error", err)
	}
}

func printStartup(configPath string, cfg *config.Config, encryption bool) {
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:   %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("Bot user:   %s\n", cfg.Matrix.UserID)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale:  ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("Admin API:  %s\n", cfg.Server.HTTPAddr)
	}
	green.Print("    ▶ ")
	fmt.Printf("Idle close: %s\n", cfg.Ordering.IdleTimeout)
	if encryption {
		green.Print("    ▶ ")
		fmt.Println("Encryption: enabled")
	}
	fmt.Println()
}

func runInit(args []string) error {
	path := config.Path()
	if len(args) > 0 {
		path = args[0]
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if err := config.WriteStarter(path); err != nil {
		if errors.Is(err, config.ErrExists) {
			yellow.Print("    ! ")
			fmt.Printf("Config already exists: %s\n", path)
			return nil
		}
		return err
	}

	green.Print("    ✓ ")
	fmt.Printf("Wrote %s\n", path)
	fmt.Println()
	fmt.Println("    Next steps:")
	fmt.Println("      1. Fill in the matrix section (homeserver, user_id, access_token)")
	fmt.Println("      2. Point database.path at the establishment database")
	fmt.Println("      3. Run: facil-bot serve")
	return nil
}

// healthURL builds the liveness URL from the configured listener.
func healthURL(cfg *config.Config) string {
	if cfg.Tailscale.Enabled {
		return fmt.Sprintf("http://%s/health", cfg.Tailscale.Hostname)
	}
	return fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(cfg), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runToken(args []string) error {
	name, ttl, err := parseTokenArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not set; the admin API is unauthenticated")
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}
	token, err := verifier.Generate(name, ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println(token)
	return nil
}
