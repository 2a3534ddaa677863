// controllers/srv.go
package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/config"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/session"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo *db.Repo
	Sess *session.Store
	Cfg  config.Config
	Log  *slog.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo: a.Repo,
		Sess: a.Sessions(),
		Cfg:  a.Config,
		Log:  a.Log,
	}
}

// --- helpers ---

// 统一设置会话 Cookie；maxAge < 0 表示删除
func (s *Srv) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	ma := int(maxAge / time.Second)
	if maxAge < 0 {
		ma = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
		MaxAge:   ma,
	})
}

// fail 把领域错误映射为 HTTP 状态；未知错误记日志并返回 500
func (s *Srv) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, db.ErrConflict):
		c.JSON(http.StatusConflict, app.H{"error": "conflict"})
	case errors.Is(err, app.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
	default:
		s.Log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

func (s *Srv) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": msg})
}

// pathID 解析 :id；非法 id 与不存在同样处理（404）
func pathID(c *gin.Context, name string) (uint, error) {
	return db.ParseID(c.Param(name))
}
