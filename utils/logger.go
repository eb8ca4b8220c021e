// utils/logger.go
package utils

import (
	"fmt"
	"log"
)

// Global verbose flag
var Verbose = true

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

// LogDebug logs a debug message if verbose mode is enabled
func LogDebug(format string, args ...interface{}) {
	if Verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// SetVerbose sets the verbose logging mode
func SetVerbose(v bool) {
	Verbose = v
}

// PrintStartupMessage prints a formatted startup message
func PrintStartupMessage(port int, archiveDir string) {
	fmt.Println("---------------------------------------------------")
	fmt.Printf("| 51%% Attack Simulation Node                       |\n")
	fmt.Printf("| Mode: %-41s |\n", fmt.Sprintf("HTTP Server (:%d)", port))
	archive := archiveDir
	if archive == "" {
		archive = "disabled"
	}
	fmt.Printf("| Archive: %-38s |\n", archive)
	fmt.Println("---------------------------------------------------")
}
