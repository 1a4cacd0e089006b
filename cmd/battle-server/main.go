package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/poke-battle-go/internal/api"
	"github.com/kapu/poke-battle-go/internal/battle"
	"github.com/kapu/poke-battle-go/internal/catalog"
	"github.com/kapu/poke-battle-go/internal/collection"
	appcfg "github.com/kapu/poke-battle-go/internal/config"
	"github.com/kapu/poke-battle-go/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cat, err := catalog.New(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog load error: %v", err)
	}

	addr, pass, db, err := battle.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})

	defaultDeck := cfg.DefaultDeck
	if len(defaultDeck) == 0 {
		// Users who never configured a deck battle with the first catalog cards.
		for _, c := range cat.Cards() {
			if len(defaultDeck) == cfg.MaxDeckSize {
				break
			}
			defaultDeck = append(defaultDeck, c.ID)
		}
	}
	decks, err := collection.NewService(rdb, cat, cfg.MaxDeckSize, defaultDeck)
	if err != nil {
		log.Fatalf("collection init error: %v", err)
	}

	mgr, err := battle.NewManager(cfg.RedisURL, decks, battle.WithStoreTimeout(cfg.StoreTimeout))
	if err != nil {
		log.Fatalf("battle manager init error: %v", err)
	}

	// Result archive is optional; without DATABASE_URL finished battles only
	// live in the battle store.
	var repo *battle.Repository
	if cfg.DatabaseURL != "" {
		repo, err = battle.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("battle repo init error: %v", err)
		}
		mgr.AttachRepository(repo)
	}

	srv := api.NewServer(mgr, decks, cat)
	go func() {
		obslog.L().Info("api_listen", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			obslog.L().Fatal("api_serve_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	_ = srv.Shutdown()
	_ = mgr.Close()
	if repo != nil {
		_ = repo.Close()
	}
	_ = rdb.Close()
}
