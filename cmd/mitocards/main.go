package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	adapthttp "mitocards/internal/adapter/http"
	"mitocards/internal/adapter/memory"
	"mitocards/internal/adapter/postgres"
	"mitocards/internal/adapter/redis"
	"mitocards/internal/app"
	"mitocards/internal/domain"
	"mitocards/internal/kv"
	"mitocards/internal/kvstore"
)

func main() {
	addr := env("ADDR", ":8080")
	ctx := context.Background()

	store, closer, err := openStore(ctx)
	if err != nil {
		log.Fatalf("store open: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	var catalog domain.Catalog
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		catalog, err = domain.LoadCatalog(path)
		if err != nil {
			log.Fatalf("catalog load: %v", err)
		}
		log.Printf("catalog loaded: %d cards", len(catalog))
	}

	oidcCfg, err := adapthttp.NewOIDC(ctx,
		os.Getenv("OIDC_ISSUER"),
		os.Getenv("OIDC_CLIENT_ID"),
		os.Getenv("OIDC_CLIENT_SECRET"),
		os.Getenv("OIDC_REDIRECT_URL"),
	)
	if err != nil {
		log.Fatalf("oidc setup: %v", err)
	}

	users := kvstore.NewUsers(store)
	sessions := kvstore.NewSessions(store)
	decks := kvstore.NewDecks(store)
	index := kvstore.NewIndex(store)

	authSvc := app.NewAuthService(users, sessions, decks, index)
	deckSvc := app.NewDeckService(decks, index)

	h := adapthttp.New(authSvc, deckSvc, catalog, oidcCfg).Handler()
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// openStore picks the key-value backend: Redis when REDIS_URL is set,
// Postgres when only DATABASE_URL is, and an in-memory store otherwise (dev
// only, nothing survives a restart).
func openStore(ctx context.Context) (kv.Store, io.Closer, error) {
	if url := os.Getenv("REDIS_URL"); url != "" {
		s, err := redis.Open(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using redis store")
		return s, s, nil
	}
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		s, err := postgres.Open(connStr)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using postgres store")
		return s, s, nil
	}
	log.Printf("no REDIS_URL or DATABASE_URL set; using in-memory store")
	return memory.New(), nil, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
