package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/spigell/fit-signals/cmd"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("loading .env: %v", err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
