package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "SafeCircle/internal/handler"
	"SafeCircle/internal/listeners"
	"SafeCircle/internal/models"
	"SafeCircle/internal/repository"
	"SafeCircle/internal/service"
	"SafeCircle/pkg/backup"
	"SafeCircle/pkg/cache"
	"SafeCircle/pkg/config"
	"SafeCircle/pkg/grpcx"
	"SafeCircle/pkg/i18n"
	"SafeCircle/pkg/logger"
	"SafeCircle/pkg/metrics"
	"SafeCircle/pkg/middleware"
	"SafeCircle/pkg/notification"
	"SafeCircle/pkg/registry"
	"SafeCircle/pkg/search"
	"SafeCircle/pkg/sse"
	"SafeCircle/pkg/util"
	"SafeCircle/pkg/websocket"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

func main() {
	// 加载配置
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.GlobalConfig

	// 初始化日志
	if _, err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting safecircle service", zap.String("addr", cfg.Addr))

	gin.SetMode(cfg.Mode)

	// 数据库
	db, err := util.OpenDatabase(&gorm.Config{}, cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.ContactEdge{},
		&models.AlertState{}, &models.SafetyEvent{},
		&notification.InternalNotification{}, &middleware.OperationLog{},
	); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 缓存
	store, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer store.Close()

	// 存储层
	users := repository.NewUserRepository(db, cfg.TxRetries)
	edges := repository.NewEdgeRepository(db, cfg.TxRetries)
	alerts := repository.NewAlertRepository(db, cfg.TxRetries)
	events := repository.NewEventRepository(db)

	// 事件检索
	var engine search.Engine
	if cfg.SearchEnabled {
		engine, err = search.New(search.Config{
			IndexPath: cfg.SearchPath,
		}, search.BuildIndexMapping(""))
		if err != nil {
			logger.Fatal("Failed to open search index", zap.Error(err))
		}
		defer engine.Close()
		events.SetOnAppend(service.NewEventIndexer(engine))
	}

	// 通知
	i18nSupport, err := i18n.NewI18nSupport(cfg.DefaultLanguage, "locales")
	if err != nil {
		logger.Fatal("Failed to load locales", zap.Error(err))
	}
	renderer := notification.NewRenderer(i18nSupport, cfg.DefaultLanguage)
	channels := []notification.Channel{notification.NewInboxChannel(db)}
	if cfg.Mail.Host != "" {
		channels = append(channels, notification.NewMailChannel(cfg.Mail,
			func(ctx context.Context, userID string) (string, error) {
				u, err := users.GetByID(userID)
				if err != nil {
					return "", err
				}
				return u.Email, nil
			}))
	}
	if cfg.SMS.AccessKeyId != "" {
		channels = append(channels, notification.NewSMSChannel(cfg.SMS, nil,
			func(ctx context.Context, userID string) (string, error) {
				u, err := users.GetByID(userID)
				if err != nil {
					return "", err
				}
				return u.Phone, nil
			}))
	}
	channels = append(channels, notification.NewPushChannel(cfg.Push, nil))
	dispatcher := notification.NewDispatcher(notification.DispatcherConfig{
		Retries: cfg.NotifyRetries,
	}, channels...)

	// 实时通道
	wsHub := websocket.NewHub(websocket.LoadConfigFromEnv())
	defer wsHub.Close()
	sseHub := sse.NewHub(30 * time.Second)

	registry.Set("cache", store)
	registry.Set("websocket", wsHub)
	registry.Set("sse", sseHub)
	if engine != nil {
		registry.Set("search", engine)
	}

	// 业务层
	safety := service.NewSafetyService(users, edges, events)
	machine := service.NewAlertMachine(alerts, events,
		cfg.ArmIncrement, cfg.ArmResetTimeout, cfg.DisarmHold)
	defer machine.Stop()
	coordinator := service.NewCoordinator(users, edges, alerts, events, store, cfg.SweepInterval)

	// 信号监听
	listeners.RegisterNotify(&listeners.Deps{
		Users:      users,
		Dispatcher: dispatcher,
		Renderer:   renderer,
	})
	listeners.RegisterRealtime(wsHub, sseHub)

	coordinator.Start()
	defer coordinator.Stop()

	// 定时备份
	if cfg.BackupEnabled {
		backup.StartBackupScheduler()
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sessions.Sessions("safecircle", cookie.NewStore([]byte(cfg.SessionSecret))))
	if cfg.LanguageEnabled {
		r.Use(middleware.LanguageMiddleware(i18nSupport))
	}
	r.Use(middleware.RateLimiterMiddleware())
	r.Use(middleware.InjectDB(db))
	r.Use(middleware.OperationLogMiddleware())

	if cfg.MetricsEnabled {
		monitor := metrics.NewMonitor(metrics.DefaultMonitorConfig())
		monitor.Start()
		defer monitor.Stop()
		metrics.SetGlobalMonitor(monitor)
		r.Use(metrics.MonitorMiddleware(monitor))
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
		monitorGroup := r.Group(cfg.APIPrefix + "/system/monitor")
		monitorAPI := metrics.NewMonitorAPI(monitor)
		monitorAPI.RegisterRoutes(monitorGroup)
		metrics.RegisterMonitorUI(monitorGroup, monitorAPI)
	}

	h := handlers.NewHandlers(db, users, alerts, events, safety, machine, coordinator, sseHub, wsHub, engine)
	h.Register(r)
	websocket.RegisterRoutes(r.Group("", models.AuthRequired), websocket.NewHandler(wsHub))

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// gRPC 健康探针
	if cfg.GRPCAddr != "" {
		gs := grpcx.NewServer(grpcx.ServerConfig{Addr: cfg.GRPCAddr, UnaryTimeout: 5 * time.Second})
		healthpb.RegisterHealthServer(gs, health.NewServer())
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("Failed to listen gRPC", zap.Error(err))
		}
		defer gs.GracefulStop()
		go func() {
			if err := gs.Serve(lis); err != nil {
				errChan <- err
			}
		}()
	}

	// 等待信号或错误
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("Service stopped")
}
