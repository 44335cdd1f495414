package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/epw-merge/internal/cli"
)

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
