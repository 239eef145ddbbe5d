// 文件: cmd/server/main.go
// 服务入口: 装配配置/存储/缓存/服务/路由，支持优雅停机

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rym.com/pkg/activity"
	"rym.com/pkg/api"
	"rym.com/pkg/catalog"
	"rym.com/pkg/config"
	"rym.com/pkg/feed"
	"rym.com/pkg/session"
	"rym.com/pkg/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// =========================================================================
	// 基础设施
	// =========================================================================

	db, err := gorm.Open(gormmysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("connect mysql: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("mysql pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.MySQL.MaxLifetime)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// 缓存不可达时降级运行，每次都走库
		log.Printf("⚠️ redis unreachable, running degraded: %v", err)
	}

	node, err := snowflake.NewNode(cfg.Snowflake.NodeID)
	if err != nil {
		log.Fatalf("snowflake node: %v", err)
	}

	// =========================================================================
	// 仓储与服务
	// =========================================================================

	catalogRepo := catalog.NewMySQLCatalogRepository(db)
	userRepo := user.NewMySQLUserRepository(db)
	activityRepo := activity.NewMySQLActivityRepository(db)

	sessions := session.NewStore(rdb, cfg.Session.TTL, node)
	auth := user.NewAuthService(userRepo)
	resolver := feed.NewResolver(userRepo)
	feedSvc := feed.NewService(rdb, catalogRepo, resolver, cfg.Feed.PageSize)

	activitySvc := activity.NewService(activityRepo, catalogRepo, node)

	// 互动事件可选走消息管道; 不配置则同步直写
	switch cfg.Events.Transport {
	case "kafka":
		pub, err := activity.NewEventPublisher(cfg.Events.Brokers)
		if err != nil {
			log.Fatalf("kafka publisher: %v", err)
		}
		defer pub.Close()
		activitySvc = activitySvc.WithPublisher(pub)
		log.Println("✅ View events -> Kafka")

		if cfg.Events.RunWriter {
			writerCfg := activity.DefaultDBWriterConfig(cfg.Events.Brokers)
			writer, err := activity.NewDBWriter(writerCfg, activityRepo)
			if err != nil {
				log.Fatalf("db writer: %v", err)
			}
			writer.Start(writerCfg.FlushInterval)
			defer writer.Stop()
			log.Println("✅ DB Writer Started")
		}
	case "nats":
		pub, err := activity.NewNatsEventPublisher(cfg.Events.NatsURL)
		if err != nil {
			log.Fatalf("nats publisher: %v", err)
		}
		defer pub.Close()
		activitySvc = activitySvc.WithPublisher(pub)
		log.Println("✅ View events -> NATS")

		if cfg.Events.RunWriter {
			writer, err := activity.NewNatsDBWriter(activityRepo, cfg.Events.NatsURL)
			if err != nil {
				log.Fatalf("nats db writer: %v", err)
			}
			if err := writer.Start(); err != nil {
				log.Fatalf("nats db writer start: %v", err)
			}
			defer writer.Stop()
			log.Println("✅ NATS DB Writer Started")
		}
	default:
		log.Println("✅ View events -> direct upsert")
	}

	// =========================================================================
	// HTTP
	// =========================================================================

	handler := api.NewHandler(feedSvc, auth, catalogRepo, activitySvc, sessions)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Printf("🚀 Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	stats := feedSvc.Stats()
	log.Printf("Feed stats: hits=%d, misses=%d, cache_errors=%d",
		stats.Hits, stats.Misses, stats.CacheErrors)
	log.Println("✅ Bye")
}
