// Package main 是服务端的入口点
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storyforge/internal/cache"
	"storyforge/internal/config"
	"storyforge/internal/handler"
	"storyforge/internal/imagegen"
	"storyforge/internal/logger"
	"storyforge/internal/middleware"
	"storyforge/internal/narrative"
	"storyforge/internal/notify"
	"storyforge/internal/repository"
	"storyforge/internal/service"
	"storyforge/internal/websocket"
	"storyforge/pkg/jwt"
	"storyforge/pkg/util"
)

func main() {
	// .env 可选
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	// 初始化缓存
	tokenCache, err := initCache(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init cache", zap.Error(err))
	}

	// 初始化 JWT 服务
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpire)

	// 工作区和外部能力
	registry := repository.NewWorkspaceRegistry()
	center := notify.NewCenter(cfg.Notify.Capacity, zapLogger)
	images := imagegen.NewClient(cfg.ImageGen, zapLogger)
	templates := narrative.NewTemplates(nil)
	ids := util.NewIDGenerator()

	// 初始化 Service 层
	authService := service.NewAuthService(registry, jwtService, tokenCache, center, cfg.Auth.Delay, cfg.Auth.OAuthDelay, zapLogger)
	characterService := service.NewCharacterService(registry, images, templates, center, ids, cfg.ImageGen.PlaceholderURL, zapLogger)
	worldService := service.NewWorldService(registry, images, templates, center, ids, zapLogger)
	sessionService := service.NewSessionService(
		registry,
		narrative.NewTemplateReply(cfg.Game.ReplyTemplate),
		images,
		nil,
		ids,
		service.SessionOptions{ReplyDelay: cfg.Game.ReplyDelay, SceneImages: cfg.Game.SceneImages},
		zapLogger,
	)
	libraryService := service.NewLibraryService(registry)
	settingsService := service.NewSettingsService(registry)

	// 初始化 WebSocket Hub
	wsHub := websocket.NewHub(sessionService, zapLogger)
	go wsHub.Run() // 在单独的 goroutine 中运行
	sessionService.SetEventPublisher(wsHub)

	// 通知投递：WebSocket，启用 Redis 时同时广播
	center.AddSink(wsHub)
	if publisher, ok := tokenCache.(notify.Publisher); ok {
		center.AddSink(notify.PublisherSink(publisher))
	}
	center.SetMuteFunc(func(userKey string) bool {
		return !settingsService.NotificationsEnabled(userKey)
	})

	authService.OnLogout(wsHub.DisconnectUser)
	authService.OnLogout(center.Forget)

	// 初始化 Handler 层
	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(authService),
		Character: handler.NewCharacterHandler(characterService),
		World:     handler.NewWorldHandler(worldService),
		Session:   handler.NewSessionHandler(sessionService),
		Library:   handler.NewLibraryHandler(libraryService, settingsService, center),
	}
	wsHandler := websocket.NewHandler(wsHub, jwtService, tokenCache, zapLogger)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 全局中间件
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.LoggerMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(cfg.Server.CORS))

	// 请求指标，暴露在 /metrics
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// 注册路由
	handlers.RegisterRoutes(router, middleware.AuthMiddleware(jwtService, tokenCache))
	wsHandler.RegisterRoutes(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ImageGen.Timeout + 10*time.Second, // 创建世界时要等待图片生成
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	// 关闭所有工作区，等待中的回复随之取消
	registry.CloseAll()
	if err := sessionService.Shutdown(ctx); err != nil {
		zapLogger.Warn("Pending replies did not settle", zap.Error(err))
	}
	wsHub.Shutdown()
	center.Wait()

	if err := tokenCache.Close(); err != nil {
		zapLogger.Warn("Failed to close cache", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// initCache 启用 Redis 时连接 Redis，否则使用进程内缓存
func initCache(cfg *config.Config, zapLogger *zap.Logger) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		zapLogger.Info("Redis disabled, using in-memory cache")
		return cache.NewMemoryCache(), nil
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return nil, err
	}
	zapLogger.Info("Redis connected",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)
	return redisCache, nil
}
