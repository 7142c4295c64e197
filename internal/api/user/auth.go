package user

import (
	"errors"
	"net/http"

	"github.com/codearena/codearena/internal/auth"
	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/database/models"
	"github.com/codearena/codearena/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (h *Handler) getAuthStatus(c *gin.Context) {
	util.Success(c, gin.H{
		"local_auth_enabled": h.cfg.Auth.Local.Enabled,
	}, "auth status")
}

func (h *Handler) localRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Nickname string `json:"nickname"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	if _, err := database.GetUserByUsername(h.db, req.Username); err == nil {
		util.Error(c, http.StatusConflict, "username is taken")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}
	u := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		Nickname:     nickname,
	}
	if err := database.CreateUser(h.db, &u); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	zap.S().Infof("registered local account %s", u.Username)
	util.Success(c, gin.H{"id": u.ID, "username": u.Username}, "account created")
}

func (h *Handler) localLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	u, err := database.GetUserByUsername(h.db, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusUnauthorized, "wrong username or password")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	// GitLab-only accounts carry no local password hash.
	if u.PasswordHash == "" || !auth.CheckPasswordHash(req.Password, u.PasswordHash) {
		util.Error(c, http.StatusUnauthorized, "wrong username or password")
		return
	}

	token, err := auth.GenerateJWT(u.ID, h.cfg.Auth.JWT.Secret, h.cfg.Auth.JWT.ExpireHours)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, gin.H{"token": token}, "logged in")
}
