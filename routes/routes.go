package routes

import (
	"net/http"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/controllers"
)

func RegisterRoutes(a *app.App) {
	r := a.Router

	// 控制器与依赖
	s := controllers.GetSrv(a)
	authCtl := controllers.NewAuthController(s)
	bookCtl := controllers.NewBookController(s)
	profileCtl := controllers.NewProfileController(s)
	adminCtl := controllers.NewAdminController(s)

	// 复用的中间件
	authMW := app.AuthRequired()
	adminMW := app.AdminOnly()
	loginRL := app.RateLimit(a.LoginLimiter())

	// 会话解析对所有路由生效；匿名请求照常通过
	r.Use(app.Authenticate(a), app.TouchLastSeen(a, 5*time.Minute))

	// Health
	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// 账号
	// ------------------------------
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", loginRL, authCtl.Register)
		auth.POST("/login", loginRL, authCtl.Login)
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/whoami", authMW, authCtl.Whoami)
	}

	// ------------------------------
	// 目录（公开，登录后标注自己持有的书）
	// ------------------------------
	books := r.Group("/api/books")
	{
		books.GET("", bookCtl.ListBooks) // ?available=&q=
		books.GET("/:id", bookCtl.GetBook)
		books.POST("/:id/borrow", authMW, bookCtl.Borrow)
	}

	// ------------------------------
	// 借还（需要登录）
	// ------------------------------
	me := r.Group("/api", authMW)
	{
		me.POST("/records/:id/return", bookCtl.Return)
		me.GET("/my-books", bookCtl.MyBooks)
		me.GET("/me/profile", profileCtl.GetProfile)
		me.PUT("/me/profile", profileCtl.UpdateProfile)
	}

	// ------------------------------
	// 管理台（仅管理员）
	// ------------------------------
	admin := r.Group("/api/admin", adminMW)
	{
		admin.GET("/authors", adminCtl.ListAuthors)
		admin.POST("/authors", adminCtl.CreateAuthor)

		admin.GET("/books", adminCtl.ListBooks) // ?available=&author_id=&q=
		admin.POST("/books", adminCtl.CreateBook)
		admin.PUT("/books/:id/image", adminCtl.SetBookImage)

		admin.GET("/members", adminCtl.ListMembers) // ?q=&page=&size=

		admin.GET("/records", adminCtl.ListRecords) // ?status=open|returned&author_id=&q=&page=&size=
		admin.POST("/records/:id/return", adminCtl.ReturnRecord)

		admin.GET("/users", adminCtl.ListUsers)
		admin.PUT("/users/:id/admin", adminCtl.SetUserAdmin)
		admin.DELETE("/users/:id", adminCtl.DeleteUser)
	}
}
