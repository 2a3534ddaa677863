package app

import (
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/session"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖；存储句柄显式传递，没有包级全局状态
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Repo   *db.Repo
	Config config.Config
	Log    *slog.Logger

	sessions     *session.Store
	loginLimiter *IPRateLimiter
	shutdown     []func(context.Context) error
}

func (a *App) Sessions() *session.Store { return a.sessions }

func (a *App) LoginLimiter() *IPRateLimiter { return a.loginLimiter }

// OnClose 注册关闭时执行的钩子（逆序执行）
func (a *App) OnClose(f func(context.Context) error) { a.shutdown = append(a.shutdown, f) }

// New 连接 DB 与 Redis 并组装 App
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	return Assemble(cfg, log, dbConn, rdb), nil
}

// Assemble 用已经打开的 DB/Redis 组装 App（测试用 sqlite + miniredis）
func Assemble(cfg config.Config, log *slog.Logger, dbConn *gorm.DB, rdb *redis.Client) *App {
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)

	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = 10
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	perMinute := rate.Every(time.Minute / time.Duration(cfg.LoginRatePerMinute))
	return &App{
		Router:       r,
		DB:           dbConn,
		RDB:          rdb,
		Repo:         db.NewRepo(dbConn),
		Config:       cfg,
		Log:          log,
		sessions:     session.NewStore(rdb, cfg.SessionTTL),
		loginLimiter: NewIPRateLimiter(perMinute, cfg.LoginRatePerMinute),
	}
}

func (a *App) Close(ctx context.Context) {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			a.Log.Warn("shutdown hook failed", "err", err)
		}
	}
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
