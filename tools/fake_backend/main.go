package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/patrickwarner/troyconsole/internal/observability"
)

var (
	addr      = flag.String("addr", ":3000", "listen address")
	campaigns = flag.Int("campaigns", 30, "number of campaigns to generate")
	token     = flag.String("token", "", "bearer token required on /api routes (empty accepts any)")
	seedFlag  = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
)

// fake_backend serves generated platform data so the console can be run
// locally without the real API.
func main() {
	flag.Parse()

	logger, err := observability.InitLoggerWithService("fake_backend")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	p := seed(rand.New(rand.NewSource(*seedFlag)), *campaigns, time.Now())
	p.token = *token
	p.logger = logger

	r := mux.NewRouter()
	p.routes(r)

	logger.Info("fake platform API running",
		zap.String("addr", *addr),
		zap.Int("campaigns", *campaigns),
		zap.Int64("seed", *seedFlag))
	srv := &http.Server{Addr: *addr, Handler: r, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}
