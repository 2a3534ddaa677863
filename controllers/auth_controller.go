package controllers

import (
	"errors"
	"net/http"
	"strings"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// HashPassword bcrypt 哈希；CLI 创建管理员时复用
func HashPassword(pw string) (string, error) {
	if len(pw) < minPasswordLen {
		return "", errors.New("password must be at least 8 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// POST /api/auth/register  注册成功即登录
func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		Username  string `json:"username" binding:"required,max=150"`
		Password1 string `json:"password1" binding:"required"`
		Password2 string `json:"password2" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		ac.badRequest(c, "username is required")
		return
	}
	if in.Password1 != in.Password2 {
		ac.badRequest(c, "passwords do not match")
		return
	}
	hash, err := HashPassword(in.Password1)
	if err != nil {
		ac.badRequest(c, err.Error())
		return
	}

	u := &models.User{ID: uuid.NewString(), Username: in.Username, PasswordHash: hash}
	if err := ac.Repo.CreateUser(c.Request.Context(), u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			c.JSON(http.StatusConflict, app.H{"error": "username already taken"})
			return
		}
		ac.fail(c, err)
		return
	}
	if err := ac.issueSession(c, u); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"user": u})
}

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	u, err := ac.Repo.FindUserByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		ac.fail(c, err)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid username or password"})
		return
	}
	if err := ac.issueSession(c, u); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}

// 登录成功：创建会话 + 登录快照
func (ac *AuthController) issueSession(c *gin.Context, u *models.User) error {
	ctx := c.Request.Context()
	if err := ac.Repo.TouchUserLogin(ctx, u.ID, c.ClientIP()); err != nil {
		ac.Log.WarnContext(ctx, "touch user login", "user", u.ID, "err", err) // 不阻塞
	}
	id, err := ac.Sess.Create(ctx, u.ID, u.Username)
	if err != nil {
		return err
	}
	ac.setSessionCookie(c.Writer, id, ac.Sess.TTL())
	ac.Log.InfoContext(ctx, "user logged in", "user", u.ID, "username", u.Username)
	return nil
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.SessionCookie); err == nil && ck.Value != "" {
		_ = ac.Sess.Delete(c.Request.Context(), ck.Value)
	}
	ac.setSessionCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/whoami
func (ac *AuthController) Whoami(c *gin.Context) {
	uid, _ := app.UserID(c)
	c.JSON(http.StatusOK, app.H{
		"userID":   uid,
		"username": app.Username(c),
		"isAdmin":  app.IsAdmin(c),
	})
}
