package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/indexdata/internal/indexdata/application"
	"github.com/wyfcoding/indexdata/internal/indexdata/domain"
	"github.com/wyfcoding/indexdata/internal/indexdata/infrastructure/persistence/mysql"
	indexredis "github.com/wyfcoding/indexdata/internal/indexdata/infrastructure/persistence/redis"
	"github.com/wyfcoding/indexdata/internal/indexdata/interfaces/consumer"
	httpserver "github.com/wyfcoding/indexdata/internal/indexdata/interfaces/http"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var configPath = flag.String("config", "configs/indexdata/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	logCfg := &logging.Config{Service: cfg.Server.Name, Level: cfg.Log.Level}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)

	// 4. 数据库
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&domain.MarketIndex{},
			&domain.Constituent{},
			&domain.ConstituentChange{},
			&domain.PriceBar{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka 与 Outbox
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)

	// 6. Redis
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to init redis", "error", err)
	}

	// 7. 仓储
	indexRepo := mysql.NewIndexRepository(db.RawDB())
	priceBarRepo := mysql.NewPriceBarRepository(db.RawDB())
	publisher := outbox.NewPublisher(outboxMgr)

	var readRepo domain.ConstituentReadRepository
	if redisCache != nil {
		readRepo = indexredis.NewConstituentRedisRepository(redisCache.GetClient())
	}

	// 8. 应用服务
	reconcileSvc := application.NewReconcileService(indexRepo, publisher)
	querySvc := application.NewIndexQueryService(indexRepo, readRepo)
	projectionSvc := application.NewProjectionService(indexRepo, readRepo)
	marketDataSvc := application.NewMarketDataService(priceBarRepo)

	// 9. Kafka 消费者：对账事件驱动读模型刷新
	kafkaCfg := &cfg.MessageQueue.Kafka
	kafkaCfg.GroupID = "indexdata-projection"
	kafkaCfg.Topic = domain.IndexReconciledEventType

	kafkaConsumer := kafka.NewConsumer(kafkaCfg, logger, metricsImpl)
	projectionHandler := consumer.NewProjectionHandler(projectionSvc, logger.Logger)
	projectionHandler.Subscribe(context.Background(), kafkaConsumer)

	// 10. 接口层
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, health.NewServer())
	reflection.Register(grpcSrv)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpHandler := httpserver.NewIndexDataHandler(reconcileSvc, querySvc, marketDataSvc)
	httpHandler.RegisterRoutes(r.Group("/api"))

	// 11. 启动
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		slog.Info("gRPC server starting", "addr", addr)
		return grpcSrv.Serve(lis)
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server := &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
		}
		grpcSrv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exiting")
}
