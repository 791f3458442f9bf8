package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/booking"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/consultation"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/events"
	"github.com/hackgods/clinic-scheduling/internal/lock"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/medicine"
	"github.com/hackgods/clinic-scheduling/internal/prescription"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/seed"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_backend", cfg.StoreBackend),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(rootCtx, cfg, zlog); err != nil {
		zlog.Fatal("api-server stopped with error", zap.Error(err))
	}
	zlog.Info("api-server shut down")
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	var (
		pgPool    *pgxpool.Pool
		rdb       *redis.Client
		repo      appointment.Repository
		memRepo   *appointment.MemoryRepository
		medicines medicine.Repository
	)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			return err
		}
		defer pool.Close()
		zlog.Info("connected to Postgres")

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		pgPool = pool
		repo = appointment.NewPgRepository(pool)
		medicines = medicine.NewPgRepository(pool)
	default:
		memRepo = appointment.NewMemoryRepository()
		repo = memRepo
		medicines = medicine.NewMemoryRepository()
	}

	// Slot locks: Redis when configured so several api-server replicas
	// agree, in-process otherwise.
	var locker lock.Locker = lock.NewLocal(cfg.LockWait)
	if cfg.RedisAddr != "" {
		client, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				zlog.Warn("error closing redis", zap.Error(err))
			}
		}()
		zlog.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
		rdb = client
		locker = redisclient.NewRedisSlotLocker(client, cfg.LockTTL, cfg.LockWait)
	}

	publishers := events.Multi{events.NewRecorder(repo), events.NewLog(zlog)}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() { _ = amqpPub.Close() }()
		zlog.Info("publishing events to RabbitMQ", zap.String("exchange", cfg.AMQPExchange))
		publishers = append(publishers, amqpPub)
	}

	var prescriptions prescription.Store = prescription.NewMemoryStore()
	if cfg.MinioEndpoint != "" {
		client, err := prescription.NewMinioClient(prescription.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return err
		}
		store, err := prescription.NewMinioStore(ctx, client, cfg.MinioBucket)
		if err != nil {
			return err
		}
		zlog.Info("storing prescriptions in MinIO", zap.String("bucket", cfg.MinioBucket))
		prescriptions = store
	}

	slots := appointment.NewSlotStore(repo, publishers, zlog)
	store := appointment.NewStore(repo, slots, locker, publishers, zlog)

	if memRepo != nil {
		ds := seed.Generate(seed.Options{Doctors: 5, Patients: 20, Days: 14, From: appointment.DateOf(time.Now())})
		if err := seed.LoadMemory(ctx, memRepo, slots, ds); err != nil {
			return err
		}
		zlog.Info("loaded demo data into memory store",
			zap.Int("doctors", len(ds.Doctors)),
			zap.Int("patients", len(ds.Patients)),
			zap.Int("slots", len(ds.Slots)),
		)
	}

	router := api.NewRouter(api.RouterConfig{
		Slots:          slots,
		Appointments:   store,
		Booking:        booking.NewWorkflow(repo, slots, store, zlog),
		Consultation:   consultation.NewWorkflow(store, prescriptions, zlog),
		Medicines:      medicines,
		PgPool:         pgPool,
		Redis:          rdb,
		Log:            zlog,
		Env:            cfg.Env,
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down api-server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
