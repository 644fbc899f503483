package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/vp-kuljetus/telematics-gateway/internal/buildinfo"
	"github.com/vp-kuljetus/telematics-gateway/internal/config"
	"github.com/vp-kuljetus/telematics-gateway/internal/frontend"
	"github.com/vp-kuljetus/telematics-gateway/internal/listener"
	"github.com/vp-kuljetus/telematics-gateway/internal/logger"
	"github.com/vp-kuljetus/telematics-gateway/internal/middleware/logging"
	"github.com/vp-kuljetus/telematics-gateway/internal/middleware/muxprom"
	"github.com/vp-kuljetus/telematics-gateway/internal/records"
	"github.com/vp-kuljetus/telematics-gateway/internal/replay"
	"github.com/vp-kuljetus/telematics-gateway/internal/store"
	"github.com/vp-kuljetus/telematics-gateway/internal/store/legacycache"
	"github.com/vp-kuljetus/telematics-gateway/internal/vault"
	"github.com/vp-kuljetus/telematics-gateway/internal/vehiclemgmt"
)

const app = "telematics-gateway"

var (
	a = kingpin.New(app, "Teltonika telematics ingestion gateway")

	migrateCacheCmd  = a.Command("migrate-cache", "seed the failed-event store from the legacy per-IMEI on-disk cache")
	migrateCacheRoot = migrateCacheCmd.Arg("dir", "directory containing one subdirectory per IMEI").Required().String()

	apiBaseURL = a.Flag("api.base-url", "Vehicle Management API base URL").Envar("API_BASE_URL").String()
	apiKey     = a.Flag("api.key", "Vehicle Management API key").Envar("VEHICLE_MANAGEMENT_SERVICE_API_KEY").String()
	sslVerify  = a.Flag("api.ssl-verify", "verify TLS certificates on the Vehicle Management API").Default("true").Envar("API_SSL_VERIFY").Bool()

	purgeChunkSize = a.Flag("purge.chunk-size", "max rows replayed per purge batch").Default(fmt.Sprint(config.DefaultPurgeChunkSize)).Envar("PURGE_CHUNK_SIZE").Int()
	sweepInterval  = a.Flag("purge.sweep-interval", "interval between background purge sweeps").Default("30s").Envar("PURGE_SWEEP_INTERVAL").Duration()
	disableSweep   = a.Flag("purge.disable-sweep", "disable the background purge sweep, relying only on the opportunistic per-frame purge").Default("false").Envar("PURGE_DISABLE_SWEEP").Bool()

	storePath = a.Flag("store.path", "bbolt database file backing the failed-event store").Default("/var/lib/telematics-gateway/failed_events.db").Envar("FAILED_EVENT_STORE_PATH").String()

	adminPort = a.Flag("admin.port", "admin HTTP port (/info, /metrics, /verbosity)").Default("8080").Envar("ADMIN_PORT").String()

	logMethod         = a.Flag("log.method", "alternative method for logging in addition to stdout").PlaceHolder("[file|vector]").Default("").Envar("LOG_METHOD").String()
	logFilePath       = a.Flag("log.file-path", "directory path where log files are written if log-method is file").Default("/var/log/telematics-gateway").Envar("LOG_FILE_PATH").String()
	logFileMaxSize    = a.Flag("log.file-max-size", "max file size in megabytes if log-method is file").Default("256").Envar("LOG_FILE_MAX_SIZE").Int()
	logFileMaxBackups = a.Flag("log.file-max-backups", "max file backups before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_BACKUPS").Int()
	logFileMaxAge     = a.Flag("log.file-max-age", "max file age in days before they are rotated if log-method is file").Default("1").Envar("LOG_FILE_MAX_AGE").Int()
	vectorEndpoint    = a.Flag("vector.endpoint", "vector endpoint to send structured json logs to").Default("http://0.0.0.0:4444").Envar("VECTOR_ENDPOINT").String()

	vaultAddr     = a.Flag("vault.addr", "Vault instance address for the AppRole client").Default("").Envar("VAULT_ADDRESS").String()
	vaultRoleId   = a.Flag("vault.role-id", "Vault Role ID for AppRole").Default("").Envar("VAULT_ROLE_ID").String()
	vaultSecretId = a.Flag("vault.secret-id", "Vault Secret ID for AppRole").Default("").Envar("VAULT_SECRET_ID").String()

	log         *zap.Logger
	vaultClient *vault.Vault
)

var wg = sync.WaitGroup{}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	doneRenew := make(chan bool, 1)
	tokenLifecycle := make(chan bool, 1)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = ""
	}

	a.HelpFlag.Short('h')
	cmd, err := a.Parse(os.Args[1:])
	if err != nil {
		panic(fmt.Errorf("error parsing argument flags: %s", err.Error()))
	}

	if *logMethod == "file" {
		fd, err := os.Stat(*logFilePath)
		if os.IsNotExist(err) {
			panic(err)
		}
		if !fd.IsDir() {
			panic(fmt.Errorf("%s is not a directory", *logFilePath))
		}
	}

	logger.Initialize(app, hostname, logger.LoggerConfig{
		LogMethod: *logMethod,
		LogFile: logger.LogFile{
			Path:       *logFilePath,
			MaxSize:    *logFileMaxSize,
			MaxBackups: *logFileMaxBackups,
			MaxAge:     *logFileMaxAge,
		},
		VectorEndpoint: *vectorEndpoint,
	})
	log = zap.L()
	defer logger.Flush()

	if cmd == migrateCacheCmd.FullCommand() {
		runMigrateCache(*migrateCacheRoot, *storePath)
		return
	}

	if *apiBaseURL == "" || *apiKey == "" {
		log.Fatal("--api.base-url and --api.key are required to run " + app)
	}

	if *vaultRoleId != "" && *vaultSecretId != "" {
		var err error
		vaultClient, err = vault.NewVaultAppRoleClient(ctx, vault.Parameters{
			Address:         *vaultAddr,
			ApproleRoleID:   *vaultRoleId,
			ApproleSecretID: *vaultSecretId,
		})
		if err != nil {
			log.Error("failed initializing vault client", zap.Error(err))
		} else {
			wg.Add(1)
			go vaultClient.RenewToken(ctx, doneRenew, tokenLifecycle, &wg)
		}
	}

	config.NewConfig(&config.Config{
		APIBaseURL:  *apiBaseURL,
		APIKey:      *apiKey,
		SSLVerify:   *sslVerify,
		PurgeChunk:  *purgeChunkSize,
		StorePath:   *storePath,
		EnableSweep: !*disableSweep,
		SweepEvery:  *sweepInterval,
	})
	cfg := config.GetConfig()

	failedStore, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal("failed to open failed-event store", zap.String("path", cfg.StorePath), zap.Error(err))
	}
	defer failedStore.Close()

	client := vehiclemgmt.New(cfg.APIBaseURL, cfg.APIKey, !cfg.SSLVerify)
	proc := &records.Processor{Client: client, FailedStore: failedStore}

	for _, profile := range listener.All {
		profile := profile
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := frontend.Listen(ctx, profile, proc, cfg.PurgeChunk); err != nil {
				log.Error("listener stopped", zap.String("profile", profile.Name), zap.Error(err))
			}
		}()
	}

	if cfg.EnableSweep {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSweep(ctx, client, failedStore, cfg.PurgeChunk, cfg.SweepEvery)
		}()
	}

	router := mux.NewRouter()
	instrumentation := muxprom.NewDefaultInstrumentation()
	router.Use(instrumentation.Middleware)

	router.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(buildinfo.Info)
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	router.HandleFunc("/verbosity", logger.Verbosity).Methods("GET")
	router.HandleFunc("/verbosity", logger.SetVerbosity).Methods("PUT")

	srv := &http.Server{
		Addr:    ":" + *adminPort,
		Handler: logging.LoggingHandler(router),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("starting admin http server failed", zap.Error(err))
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-signals
		log.Info(s.String() + " signal caught, stopping app")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("admin http server shutdown failed", zap.Error(err))
		}

		if vaultClient != nil && vaultClient.IsLoggedIn() {
			tokenLifecycle <- true
		}
		doneRenew <- true
	}()

	log.Info("started " + app + " service")

	wg.Wait()
}

// runMigrateCache seeds the failed-event store from the legacy per-IMEI
// on-disk cache: one subdirectory of root per IMEI, each holding the
// pre-SQL per-handler JSON cache files.
func runMigrateCache(root, storePath string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		log.Fatal("migrate-cache: failed to read root directory", zap.String("dir", root), zap.Error(err))
	}

	s, err := store.Open(storePath)
	if err != nil {
		log.Fatal("migrate-cache: failed to open failed-event store", zap.String("path", storePath), zap.Error(err))
	}
	defer s.Close()

	var imported int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := root + "/" + e.Name()
		rows, err := legacycache.ImportLegacyCache(dir)
		if err != nil {
			log.Error("migrate-cache: failed to import imei directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, row := range rows {
			if _, err := s.Persist(row.IMEI, row.HandlerName, row.EventData, time.Unix(row.Timestamp, 0)); err != nil {
				log.Error("migrate-cache: failed to persist row",
					zap.String("imei", row.IMEI), zap.String("handler", row.HandlerName), zap.Error(err))
				continue
			}
			imported++
		}
	}

	log.Info("migrate-cache: done", zap.Int("rows_imported", imported))
}

// runSweep runs one replay.Batch every interval for the IMEI that
// NextFailedImei returns (the one whose failed event was most recently
// attempted), until ctx is cancelled.
func runSweep(ctx context.Context, client *vehiclemgmt.Client, failedStore store.Store, chunkSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			imei, ok, err := failedStore.NextFailedImei()
			if err != nil {
				zap.L().Error("sweep: failed to pick next imei", zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			n, err := replay.Batch(ctx, client, failedStore, imei, chunkSize)
			if err != nil {
				zap.L().Error("sweep: replay failed", zap.String("imei", imei), zap.Error(err))
				continue
			}
			if n > 0 {
				zap.L().Info("sweep: replayed failed events", zap.String("imei", imei), zap.Int("count", n))
			}
		}
	}
}
