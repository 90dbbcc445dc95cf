/**
 * @description
 * This is the main entry point for the marketplace service. It is responsible
 * for initializing all components of the service, including configuration,
 * database connection and migrations, the Redis-backed session store, the SMTP
 * mailer, the object store, the escrow ledger client, the message broker
 * producer, the core application service, and the HTTP server. It wires
 * everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for the pending-registration store.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/ledgerclient, pkg/objstore, pkg/rabbitmq: External-facing clients.
 */

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/api"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/app"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/config"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/mailer"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/session"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/internal/store"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/ledgerclient"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/objstore"
	"github.com/m-sabonkudi/Multi-Vendor-Ethereum-Marketplace/pkg/rabbitmq"
)

func main() {
	// Load a local .env file into the environment if one exists.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("level=warn component=bootstrap msg=\"failed to load .env file\" err=%v", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	log.Printf("level=info component=bootstrap msg=\"starting marketplace service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	defer cancelMigrate()
	if err := store.RunMigrations(migrateCtx, cfg.DatabaseURL); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"migrations failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"database connected and migrated\"")

	// Pending registrations live in Redis; without it the service falls back to
	// a process-local store, which is fine for a single instance.
	var pending session.PendingStore
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; using in-memory session store\" env=REDIS_URL")
		pending = session.NewMemoryStore()
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"redis url parse failed\" err=%v", parseErr)
		}
		redisClient := redis.NewClient(redisOptions)
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelPing()
		if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory session store\" err=%v", pingErr)
			redisClient.Close()
			pending = session.NewMemoryStore()
		} else {
			defer redisClient.Close()
			pending = session.NewRedisStore(redisClient)
			log.Println("level=info component=bootstrap msg=\"redis connected\"")
		}
	}

	// Initialize the RabbitMQ producer to publish events.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.FallbackProducer{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Outbound mail is a hard dependency: registration and transaction flows
	// cannot run without it.
	smtpMailer, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"smtp mailer init failed\" err=%v", err)
	}

	// Media storage degrades to disabled when unconfigured.
	var media objstore.Store
	if strings.TrimSpace(cfg.S3AccessKey) == "" {
		log.Println("level=warn component=bootstrap msg=\"object storage not configured; image uploads disabled\" env=S3_ACCESS_KEY")
	} else {
		s3Store, s3Err := objstore.NewS3Store(context.Background(), objstore.Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if s3Err != nil {
			log.Printf("level=warn component=bootstrap msg=\"object storage init failed; image uploads disabled\" err=%v", s3Err)
		} else {
			media = s3Store
			log.Println("level=info component=bootstrap msg=\"object storage ready\"")
		}
	}

	// The ledger client degrades too; balance queries then fail fast.
	var ledger app.Ledger
	if strings.TrimSpace(cfg.LedgerRPCURL) == "" || strings.TrimSpace(cfg.ContractAddress) == "" {
		log.Println("level=warn component=bootstrap msg=\"ledger client not configured; balance queries disabled\" env=LEDGER_RPC_URL,CONTRACT_ADDRESS")
	} else {
		ledgerClient, ledgerErr := ledgerclient.NewClient(cfg.LedgerRPCURL, cfg.ContractAddress)
		if ledgerErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"ledger client init failed; balance queries disabled\" err=%v", ledgerErr)
		} else {
			ledger = ledgerClient
			log.Println("level=info component=bootstrap msg=\"ledger client ready\"")
		}
	}

	secret := cfg.SessionJWTSecret
	if secret == "" {
		// A random per-boot secret keeps the flow working in development;
		// tokens will not survive restarts.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"session secret generation failed\" err=%v", err)
		}
		secret = hex.EncodeToString(buf)
		log.Println("level=warn component=bootstrap msg=\"SESSION_JWT_SECRET not set; using ephemeral secret\"")
	}
	tokens := api.NewSessionTokens(secret)

	repository := store.NewPostgresRepository(dbpool)
	service := app.NewService(repository, pending, smtpMailer, media, producer, ledger, cfg.OperatorEmail)
	handlers := api.NewHandlers(service, tokens)
	router := api.Routes(handlers, tokens)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}
	log.Println("level=info component=http msg=\"shutdown complete\"")
}
