// app/seenmw.go
package app

import (
	"time"

	"github.com/gin-gonic/gin"
)

// TouchLastSeen 每个用户每 throttle 最多写一次 last_seen_at
func TouchLastSeen(a *App, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "lib:user:lastseen:" + uid
		if ok, _ := a.RDB.SetNX(ctx, key, "1", throttle).Result(); ok {
			if err := a.Repo.TouchUserSeen(ctx, uid); err != nil {
				a.Log.WarnContext(ctx, "touch last seen", "user", uid, "err", err) // 不阻塞请求
			}
		}
		c.Next()
	}
}
