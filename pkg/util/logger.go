package util

import (
	"fmt"
	"log"
)

// LogError logs an error with context
func LogError(message string, err error) {
	if err != nil {
		log.Printf("ERROR: %s - %v", message, err)
	}
}

// LogErrorf logs a formatted error message when err is non-nil
func LogErrorf(err error, format string, args ...any) {
	if err != nil {
		log.Printf("ERROR: %s - %v", fmt.Sprintf(format, args...), err)
	}
}

// LogInfo logs an informational message
func LogInfo(message string) {
	log.Printf("INFO: %s", message)
}

// LogInfof logs a formatted informational message
func LogInfof(format string, args ...any) {
	log.Printf("INFO: %s", fmt.Sprintf(format, args...))
}

// LogWarning logs a warning message
func LogWarning(message string) {
	log.Printf("WARNING: %s", message)
}
