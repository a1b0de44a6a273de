package main

import (
	"github.com/joho/godotenv"

	"reverie/cmd/rv/root"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()
	root.Execute()
}
