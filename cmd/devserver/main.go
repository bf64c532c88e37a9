package main

import (
	"fmt"
	"net/http"
	"os"

	"sitekeeper/internal/app/devserver"
	"sitekeeper/internal/utils/logger"
)

// Development stub of the site API. It honors the same envelope,
// create-id and idempotency-key contracts as production so the client
// outbox can be exercised end to end against it.
func main() {
	addr := os.Getenv("DEVSERVER_ADDRESS")
	if addr == "" {
		addr = "localhost:8080"
	}

	log := logger.New("local")
	mux := devserver.New(devserver.NewStore(), log)

	log.Info("devserver listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "devserver failed: %v\n", err)
		os.Exit(1)
	}
}
