//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"strings"

	"github.com/mdobak/go-xerrors"

	"github.com/himanishpuri/salami/internal/config"
	"github.com/himanishpuri/salami/pkg/logger"
	"github.com/himanishpuri/salami/pkg/salami"
)

var (
	port           int
	configPath     string
	allowedOrigins string
	logRequests    bool
	estimatesRoot  string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&configPath, "config", "", "YAML config file (env: SALAMI_CONFIG)")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.BoolVar(&logRequests, "log-requests", false, "Log every HTTP request")
	flag.StringVar(&estimatesRoot, "estimates-root", "", "Directory that holds estimate sets for source \"dir\" (env: SALAMI_ESTIMATES_ROOT)")
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %s", xerrors.Sprint(xerrors.New(err)))
	}
	if estimatesRoot != "" {
		cfg.EstimatesRoot = estimatesRoot
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(lvl)
	}

	index, err := salami.NewIndex(append(cfg.Options(), salami.WithLogger(log))...)
	if err != nil {
		log.Fatalf("Failed to index audio: %s", xerrors.Sprint(xerrors.New(err)))
	}

	store, err := salami.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open results store: %s", xerrors.Sprint(xerrors.New(err)))
	}
	defer store.Close()

	server := NewServer(index, store, &ServerConfig{
		Port:           port,
		DBPath:         cfg.DBPath,
		TempDir:        cfg.TempDir,
		EstimatesRoot:  cfg.EstimatesRoot,
		SampleRate:     cfg.SampleRate,
		Tolerance:      cfg.Tolerance,
		AllowedOrigins: parseOrigins(allowedOrigins),
		LogRequests:    logRequests,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %s", xerrors.Sprint(xerrors.New(err)))
	}
}
