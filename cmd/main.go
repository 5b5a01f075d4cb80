package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	api "github.com/courseforge/usersync/internal/api/http"
	"github.com/courseforge/usersync/internal/cache"
	"github.com/courseforge/usersync/internal/ci"
	"github.com/courseforge/usersync/internal/config"
	"github.com/courseforge/usersync/internal/directory"
	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
	"github.com/courseforge/usersync/internal/repository/postgres"
	"github.com/courseforge/usersync/internal/service"
	"github.com/courseforge/usersync/internal/token"
	"github.com/courseforge/usersync/internal/vcs/bitbucket"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)

	userCache := cache.NewUserCache(cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL))

	rules := service.RoleRules{
		AdminGroup:            cfg.Sync.AdminGroup,
		InstructorGroupSuffix: cfg.Sync.InstructorGroupSuffix,
		TAGroupSuffix:         cfg.Sync.TAGroupSuffix,
	}
	identity := service.NewIdentity(userRepo, userCache, rules, logger)
	hasher := service.NewPasswordHasher()

	var vcsService model.VersionControlService
	if cfg.VCS.Enabled() {
		vcsService = bitbucket.NewClient(cfg.VCS.URL, cfg.VCS.Username, cfg.VCS.Password, cfg.VCS.Token, logger)
	}
	var ciService model.ContinuousIntegrationService
	if cfg.CI.Enabled() {
		ciService = ci.NewClient(cfg.CI.URL, cfg.CI.Username, cfg.CI.Password, logger)
	}
	var directoryService model.DirectoryService
	if cfg.Directory.Enabled() {
		directoryService = directory.NewClient(cfg.Directory.URL, cfg.Directory.Application, cfg.Directory.Password, logger)
	}

	grantor := service.NewGrantor(vcsService, cfg.Sync.GraceWindow, cfg.Sync.RetryDelay, cfg.Sync.RetryAttempts, logger)
	syncService := service.NewSync(identity, hasher, grantor, vcsService, ciService, directoryService, cfg.VCS.WebhookURL, logger)

	tokens := token.NewJWT(cfg.JWT.Secret)
	handler := api.NewHandler(syncService, logger)
	router := api.NewRouter(handler, tokens, vcsService, logger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
