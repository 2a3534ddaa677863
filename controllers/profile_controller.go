package controllers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/db"
	"Gin_postgres_redis_library/models"

	"github.com/gin-gonic/gin"
)

type ProfileController struct{ *Srv }

func NewProfileController(s *Srv) *ProfileController { return &ProfileController{Srv: s} }

// GET /api/me/profile  还没有 member 时返回空资料
func (pc *ProfileController) GetProfile(c *gin.Context) {
	uid, _ := app.UserID(c)
	m, err := pc.Repo.FindMemberByUserID(c.Request.Context(), uid)
	if errors.Is(err, db.ErrNotFound) {
		m, err = &models.Member{UserID: uid}, nil
	}
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"profile": m})
}

// PUT /api/me/profile
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var in struct {
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		pc.badRequest(c, err.Error())
		return
	}
	if utf8.RuneCountInString(in.Phone) > 15 {
		pc.badRequest(c, "phone must be at most 15 characters")
		return
	}
	uid, _ := app.UserID(c)
	m, err := pc.Repo.UpdateMemberProfile(c.Request.Context(), uid, in.Phone, in.Address)
	if err != nil {
		pc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"profile": m})
}
