package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"forksim_go/api"
	"forksim_go/simulation"
	"forksim_go/storage"
	"forksim_go/utils"
)

// AppConfig holds all startup configuration
type AppConfig struct {
	Port    int
	Verbose bool
	DataDir string
}

func getEnvInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s. Using default %d.", key, valStr, defaultValue)
		return defaultValue
	}
	return valInt
}

// loadConfig reads environment variables first, then lets CLI flags override
// them.
func loadConfig() *AppConfig {
	config := &AppConfig{}

	flag.IntVar(&config.Port, "port", getEnvInt("API_PORT", 3002), "Port for the HTTP API")
	flag.BoolVar(&config.Verbose, "verbose", os.Getenv("VERBOSE") == "true" || os.Getenv("VERBOSE") == "1", "Enable detailed logging")
	flag.StringVar(&config.DataDir, "datadir", os.Getenv("DATA_DIR"), "Directory for the broadcast archive (empty disables archiving)")

	flag.Parse()
	return config
}

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	config := loadConfig()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	utils.SetVerbose(config.Verbose)

	sim, err := simulation.New()
	if err != nil {
		log.Fatalf("Error initializing simulation: %v", err)
	}
	utils.LogInfo("Simulation initialized: canonical chain has %d blocks", sim.CanonicalHeight())

	// The archive is optional diagnostics; the simulation itself holds no
	// durable state.
	var archive *storage.Archive
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			log.Fatalf("Error creating data directory %s: %v", config.DataDir, err)
		}
		archive, err = storage.Open(config.DataDir)
		if err != nil {
			log.Fatalf("Error opening broadcast archive: %v", err)
		}
		defer archive.Close()
	}

	server := api.NewServer(sim, archive, config.Port)
	server.SetupRoutes()

	utils.PrintStartupMessage(config.Port, config.DataDir)

	srv := server.HTTPServer()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		utils.LogInfo("Received shutdown signal: %s. Initiating graceful shutdown...", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.LogError("HTTP server shutdown error: %v", err)
		}
	}()

	utils.LogInfo("Starting HTTP server on port %d...", config.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("HTTP server failed: %v", err)
	}

	utils.LogInfo("Application shut down.")
}
