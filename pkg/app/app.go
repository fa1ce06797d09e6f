// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/huloud/huloud/pkg/configs"
	"github.com/huloud/huloud/pkg/internal/events"
	"github.com/huloud/huloud/pkg/internal/jobs"
	"github.com/huloud/huloud/pkg/internal/router"
	"github.com/huloud/huloud/pkg/internal/storage"
	"github.com/huloud/huloud/pkg/log"
	"github.com/huloud/huloud/pkg/metrics"
	"github.com/huloud/huloud/pkg/middleware"
	"github.com/huloud/huloud/pkg/scheduler"
)

// shutdownTimeout 优雅停机等待在途请求的时间上限.
const shutdownTimeout = 10 * time.Second

type App struct {
	Engine    *gin.Engine
	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	api := engine.Group("/api/v1")
	api.Use(
		middleware.AuthMiddleware(config.Auth),
		gzip.Gzip(gzip.DefaultCompression),
	)
	router.RegisterAll(api)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:    engine,
		config:    config,
		manager:   manager,
		scheduler: sched,
	}
}

// Run 启动 HTTP 服务并阻塞到收到终止信号，随后优雅停机：
// 先停调度器和监听器，等在途请求结束，最后关闭事件总线.
func (a *App) Run() error {
	// 事件总线启用时挂上日志消费者，让 hl.item.* 事件至少有一个下游
	if mqClient := a.manager.GetMQClient(); mqClient != nil {
		if err := events.StartItemLogger(contextPkg.Background(), mqClient); err != nil {
			return fmt.Errorf("start item event logger: %w", err)
		}
	}

	a.scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:      a.Engine,
		ReadTimeout:  a.config.Server.GetTimeoutDuration(),
		WriteTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Logger().Info().Str("signal", sig.String()).Msg("shutting down")
	}

	if err := a.scheduler.Shutdown(); err != nil {
		log.Logger().Warn().Err(err).Msg("scheduler shutdown failed")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if mqClient := a.manager.GetMQClient(); mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Logger().Warn().Err(err).Msg("event bus close failed")
		}
	}

	return nil
}
