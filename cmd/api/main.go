package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vitalia.org/internal/auth"
	"vitalia.org/internal/care"
	"vitalia.org/internal/config"
	"vitalia.org/internal/httpapi"
	"vitalia.org/internal/obs"
	"vitalia.org/internal/store/mongo"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load(os.Getenv("VITALIA_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	codec, err := auth.NewCodec([]byte(cfg.JWT.Secret), cfg.JWT.Issuer)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Connect to MongoDB when a URI is configured; otherwise run fully
	// in-memory, which is enough for local development and smoke tests.
	var (
		authStore auth.Store
		careSvc   care.Service
		probe     httpapi.ReadyProbe
		closeFn   func(context.Context) error
	)
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := mongo.Open(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		authStore = store
		careSvc = store.Care()
		probe = httpapi.ReadyProbe{Ping: store.Ping}
		closeFn = store.Close
	} else {
		log.Println("VITALIA_MONGO_URI not set, using in-memory stores")
		authStore = auth.NewInMemoryStore()
		careSvc = care.NewInMemory()
	}

	authSvc := auth.NewService(authStore, codec,
		auth.WithAccessTTL(cfg.JWT.AccessTTL),
		auth.WithRefreshTTL(cfg.JWT.RefreshTTL),
	)

	api := httpapi.New(probe, version, authSvc, careSvc, httpapi.CookieConfig{
		Name:     cfg.Cookie.Name,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.CookieSameSite(),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Printf("Starting vitalia-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if closeFn != nil {
		_ = closeFn(ctx)
	}
	log.Println("Stopped")
}
