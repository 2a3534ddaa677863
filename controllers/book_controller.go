// controllers/book_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"

	"github.com/gin-gonic/gin"
)

type BookController struct{ *Srv }

func NewBookController(s *Srv) *BookController { return &BookController{Srv: s} }

// GET /api/books?available=true  按当前观看者标注是否由自己持有
func (bc *BookController) ListBooks(c *gin.Context) {
	var q db.BooksQuery
	if v := c.Query("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			bc.badRequest(c, "available must be true or false")
			return
		}
		q.Available = &b
	}
	q.Q = c.Query("q")

	uid, _ := app.UserID(c)
	books, err := bc.Repo.ListBooksForViewer(c.Request.Context(), uid, q)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"books": books})
}

// GET /api/books/:id
func (bc *BookController) GetBook(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		bc.fail(c, err)
		return
	}
	uid, _ := app.UserID(c)
	v, err := bc.Repo.BookForViewer(c.Request.Context(), id, uid)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"book": v})
}

// POST /api/books/:id/borrow
func (bc *BookController) Borrow(c *gin.Context) {
	uid, ok := app.UserID(c)
	if !ok {
		bc.fail(c, app.ErrUnauthorized)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		bc.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := bc.Repo.BorrowBook(ctx, uid, id)
	if err != nil {
		bc.Log.InfoContext(ctx, "borrow rejected", "book", id, "user", uid, "err", err)
		bc.fail(c, err)
		return
	}
	bc.Log.InfoContext(ctx, "book borrowed", "book", id, "record", rec.ID, "user", uid)
	c.JSON(http.StatusCreated, app.H{"record": rec})
}

// POST /api/records/:id/return  只能归还自己的记录
func (bc *BookController) Return(c *gin.Context) {
	uid, ok := app.UserID(c)
	if !ok {
		bc.fail(c, app.ErrUnauthorized)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		bc.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, err := bc.Repo.ReturnRecord(ctx, id, uid)
	if err != nil {
		bc.Log.InfoContext(ctx, "return rejected", "record", id, "user", uid, "err", err)
		bc.fail(c, err)
		return
	}
	bc.Log.InfoContext(ctx, "book returned", "book", rec.BookID, "record", rec.ID, "user", uid)
	c.JSON(http.StatusOK, app.H{"record": rec})
}

// GET /api/my-books
func (bc *BookController) MyBooks(c *gin.Context) {
	uid, _ := app.UserID(c)
	recs, err := bc.Repo.ListMyOpenRecords(c.Request.Context(), uid)
	if err != nil {
		bc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"records": recs})
}
