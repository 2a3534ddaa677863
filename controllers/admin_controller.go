// controllers/admin_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

type AdminController struct{ *Srv }

func NewAdminController(s *Srv) *AdminController { return &AdminController{Srv: s} }

func queryUint(c *gin.Context, name string) (uint, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// GET /api/admin/authors
func (ac *AdminController) ListAuthors(c *gin.Context) {
	as, err := ac.Repo.ListAuthors(c.Request.Context())
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"authors": as})
}

// POST /api/admin/authors
func (ac *AdminController) CreateAuthor(c *gin.Context) {
	var in struct {
		Name  string `json:"name" binding:"required,max=100"`
		Email string `json:"email" binding:"omitempty,email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	a := &models.Author{Name: strings.TrimSpace(in.Name), Email: in.Email}
	if err := ac.Repo.CreateAuthor(c.Request.Context(), a); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /api/admin/books?available=&author_id=&q=
func (ac *AdminController) ListBooks(c *gin.Context) {
	var q db.BooksQuery
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			ac.badRequest(c, "available must be true or false")
			return
		}
		q.Available = &b
	}
	authorID, ok := queryUint(c, "author_id")
	if !ok {
		ac.badRequest(c, "invalid author_id")
		return
	}
	q.AuthorID = authorID
	q.Q = c.Query("q")

	books, err := ac.Repo.ListBooks(c.Request.Context(), q)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"books": books})
}

// POST /api/admin/books
func (ac *AdminController) CreateBook(c *gin.Context) {
	var in struct {
		Title           string `json:"title" binding:"required,max=200"`
		AuthorID        uint   `json:"authorId" binding:"required"`
		ISBN            string `json:"isbn" binding:"required,max=13"`
		PublicationDate string `json:"publicationDate" binding:"required"` // YYYY-MM-DD
		ImageURL        string `json:"imageUrl" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	pub, err := time.Parse(time.DateOnly, in.PublicationDate)
	if err != nil {
		ac.badRequest(c, "publicationDate must be YYYY-MM-DD")
		return
	}
	b := &models.Book{
		Title:           strings.TrimSpace(in.Title),
		AuthorID:        in.AuthorID,
		ISBN:            strings.TrimSpace(in.ISBN),
		PublicationDate: pub,
	}
	if in.ImageURL != "" {
		b.ImageURL = &in.ImageURL
	}
	if err := ac.Repo.CreateBook(c.Request.Context(), b); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ac.badRequest(c, "author not found")
			return
		}
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// PUT /api/admin/books/:id/image
func (ac *AdminController) SetBookImage(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		ac.fail(c, err)
		return
	}
	var in struct {
		ImageURL string `json:"imageUrl" binding:"omitempty,url"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	if err := ac.Repo.SetBookImage(c.Request.Context(), id, in.ImageURL); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/admin/members?q=&page=&size=
func (ac *AdminController) ListMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := ac.Repo.ListMembers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/admin/records?status=open|returned&author_id=&q=&page=&size=
func (ac *AdminController) ListRecords(c *gin.Context) {
	q := db.AdminRecordsQuery{
		Status: c.Query("status"),
		Q:      c.Query("q"),
	}
	switch q.Status {
	case "", "open", "returned":
	default:
		ac.badRequest(c, "status must be open or returned")
		return
	}
	authorID, ok := queryUint(c, "author_id")
	if !ok {
		ac.badRequest(c, "invalid author_id")
		return
	}
	q.AuthorID = authorID
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := ac.Repo.ListRecordsAdmin(c.Request.Context(), q)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/admin/records/:id/return  管理员代还任意 open record
func (ac *AdminController) ReturnRecord(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		ac.fail(c, err)
		return
	}
	adminID, _ := app.UserID(c)
	ctx := c.Request.Context()
	rec, err := ac.Repo.AdminReturnRecord(ctx, id, adminID)
	if err != nil {
		ac.fail(c, err)
		return
	}
	ac.Log.InfoContext(ctx, "book returned by admin", "book", rec.BookID, "record", rec.ID, "admin", adminID)
	c.JSON(http.StatusOK, app.H{"record": rec})
}

// GET /api/admin/users?q=&page=&size=
func (ac *AdminController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := ac.Repo.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "users": res.Users})
}

// PUT /api/admin/users/:id/admin
func (ac *AdminController) SetUserAdmin(c *gin.Context) {
	var in struct {
		IsAdmin *bool `json:"isAdmin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		ac.badRequest(c, err.Error())
		return
	}
	if err := ac.Repo.SetUserAdmin(c.Request.Context(), c.Param("id"), *in.IsAdmin); err != nil {
		ac.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// DELETE /api/admin/users/:id
func (ac *AdminController) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	// 不允许删除自己，避免锁死
	if uid, _ := app.UserID(c); uid == id {
		ac.badRequest(c, "cannot delete yourself")
		return
	}
	ctx := c.Request.Context()
	target, err := ac.Repo.FindUserByID(ctx, id)
	if err != nil {
		ac.fail(c, err)
		return
	}
	if target.IsAdmin || ac.Cfg.IsAdminName(target.Username) {
		c.JSON(http.StatusForbidden, app.H{"error": "cannot delete an admin"})
		return
	}
	if err := ac.Repo.DeleteUserByID(ctx, id); err != nil {
		ac.fail(c, err)
		return
	}
	// 撤销该用户的所有登录会话
	if err := ac.Sess.RevokeAllForUser(ctx, id); err != nil {
		ac.Log.WarnContext(ctx, "revoke sessions", "user", id, "err", err)
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
