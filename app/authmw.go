package app

import (
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/session"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const SessionCookie = "lib_session"

// ErrUnauthorized 匿名调用需要登录的操作
var ErrUnauthorized = errors.New("unauthorized")

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxIsAdmin  = "isAdmin"
)

// Authenticate 全局中间件：有合法会话就把 principal 放进 Context，否则按匿名继续
func Authenticate(a *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(SessionCookie)
		if err != nil || ck.Value == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		ls, err := a.Sessions().Get(ctx, ck.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				a.Log.ErrorContext(ctx, "load session", "err", err)
			}
			c.Next()
			return
		}

		// 确认用户仍存在（只查一次）
		u, err := a.Repo.FindUserByID(ctx, ls.UserID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				_ = a.Sessions().Delete(ctx, ck.Value)
			} else {
				a.Log.ErrorContext(ctx, "load session user", "err", err)
			}
			c.Next()
			return
		}
		c.Set(ctxUserID, u.ID)
		c.Set(ctxUsername, u.Username)
		c.Set(ctxIsAdmin, u.IsAdmin || a.Config.IsAdminName(u.Username))
		c.Next()
	}
}

// AuthRequired 没有 principal 时 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": ErrUnauthorized.Error()})
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// UserID 当前 principal；匿名时 ok=false
func UserID(c *gin.Context) (string, bool) {
	uid := c.GetString(ctxUserID)
	return uid, uid != ""
}

func Username(c *gin.Context) string { return c.GetString(ctxUsername) }

func IsAdmin(c *gin.Context) bool { return c.GetBool(ctxIsAdmin) }
