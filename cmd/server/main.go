package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/directmail/internal/accuzip"
	"github.com/ignite/directmail/internal/api"
	"github.com/ignite/directmail/internal/config"
	"github.com/ignite/directmail/internal/export"
	"github.com/ignite/directmail/internal/importer"
	"github.com/ignite/directmail/internal/pkg/distlock"
	"github.com/ignite/directmail/internal/pkg/logger"
	"github.com/ignite/directmail/internal/repository/postgres"
	"github.com/ignite/directmail/internal/service/campaign"
	"github.com/ignite/directmail/internal/service/lists"
	"github.com/ignite/directmail/internal/service/suppression"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// withStatementTimeout adds a statement_timeout run-time parameter to the
// DSN, which lib/pq forwards to the server at connect time.
func withStatementTimeout(dsn string, ms int) string {
	if ms <= 0 || strings.Contains(dsn, "statement_timeout") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("statement_timeout", fmt.Sprint(ms))
		u.RawQuery = q.Encode()
		return u.String()
	}
	return fmt.Sprintf("%s statement_timeout=%d", dsn, ms)
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", withStatementTimeout(cfg.URL, cfg.StatementTimeoutMilli))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openRedis returns nil when Redis is not configured or unreachable; the
// service then runs without the snapshot cache and locks through Postgres.
func openRedis(ctx context.Context, redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("Redis not configured (REDIS_URL not set) — snapshot cache off, using PG advisory locks")
		return nil
	}

	var client *redis.Client
	if opts, err := redis.ParseURL(redisURL); err != nil {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v — falling back to PG advisory locks", err)
		client.Close()
		return nil
	}
	log.Println("Redis connected (snapshot cache and distributed locking enabled)")
	return client
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Direct Mail List Manager (cmd/server/main.go)            ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.ShouldRedact())

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed (%s): %v", extractHost(cfg.Database.URL), err)
	}
	defer db.Close()
	log.Printf("Database connected: %s", extractHost(cfg.Database.URL))

	redisClient := openRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories and services
	listRepo := postgres.NewListRepo(db)
	recordRepo := postgres.NewRecordRepo(db)
	tagRepo := postgres.NewTagRepo(db)

	suppressionSvc := suppression.NewService(postgres.NewSuppressionRepo(db))

	listOpts := []lists.Option{
		lists.WithSuppressor(suppressionSvc),
		lists.WithPageSizes(cfg.Engine.DefaultPageSize, cfg.Engine.MaxPageSize),
	}
	if redisClient != nil {
		listOpts = append(listOpts, lists.WithCache(
			lists.NewRedisCache(redisClient, cfg.Redis.KeyPrefix, cfg.Engine.SnapshotTTL())))
	}
	listSvc := lists.NewService(listRepo, recordRepo, tagRepo, listOpts...)
	campaignSvc := campaign.NewService(postgres.NewCampaignRepo(db), listSvc)

	handlers := &api.Handlers{
		Lists:        listSvc,
		Campaigns:    campaignSvc,
		Suppressions: suppressionSvc,
	}

	// Data provider
	if cfg.AccuZIP.APIKey != "" {
		provider := accuzip.NewClient(accuzip.Config{
			BaseURL:    cfg.AccuZIP.BaseURL,
			APIKey:     cfg.AccuZIP.APIKey,
			Timeout:    cfg.AccuZIP.Timeout(),
			MaxRetries: cfg.AccuZIP.MaxRetries,
			PageSize:   cfg.AccuZIP.PageSize,
		})
		lockFor := func(key string) distlock.DistLock {
			return distlock.NewLock(redisClient, db, key, importer.LockTTL)
		}
		handlers.Importer = importer.New(provider, listSvc, lockFor, cfg.AccuZIP.MaxRecords)
		handlers.Provider = provider
		log.Printf("AccuZIP provider enabled (max %d records per import)", cfg.AccuZIP.MaxRecords)
	} else {
		log.Println("AccuZIP not configured (ACCUZIP_API_KEY not set) — import disabled")
	}

	// Export storage
	var s3Client *s3.Client
	if cfg.Export.Enabled() {
		s3Client, err = export.NewS3Client(ctx, export.S3Config{
			Region:          cfg.Export.Region,
			Endpoint:        cfg.Export.Endpoint,
			AccessKeyID:     cfg.Export.AccessKeyID,
			SecretAccessKey: cfg.Export.SecretAccessKey,
			Profile:         cfg.Export.GetAWSProfile(),
		})
		if err != nil {
			log.Printf("Warning: export storage unavailable: %v", err)
		} else {
			handlers.Exporter = export.NewExporter(s3Client, listSvc, cfg.Export.Bucket, cfg.Export.Prefix,
				export.WithPresigner(s3.NewPresignClient(s3Client), time.Hour))
			log.Printf("Export enabled: s3://%s/%s", cfg.Export.Bucket, cfg.Export.Prefix)
		}
	} else {
		log.Println("Export not configured (EXPORT_S3_BUCKET not set)")
	}

	var bucketProbe api.BucketHeader
	if s3Client != nil {
		bucketProbe = s3Client
	}
	health := api.NewHealthChecker(db, redisClient, bucketProbe, cfg.Export.Bucket)
	server := api.NewServer(cfg.Server, handlers, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
