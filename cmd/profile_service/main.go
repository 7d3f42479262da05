// Package main provides the entry point for the profile service HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profile_service",
	Short: "Profile and resume storage HTTP server",
	Long:  "Profile service stores user profiles, resumes and learning progress as JSON documents and runs the asynchronous resume text-extraction pipeline via REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
