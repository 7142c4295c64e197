package user

import (
	"net/http"

	"github.com/codearena/codearena/internal/database"
	"github.com/codearena/codearena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getUserProfile(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	util.Success(c, user, "ok")
}

func (h *Handler) updateUserProfile(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := database.GetUserByID(h.db, userID)
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	var reqBody struct {
		Nickname  string `json:"nickname"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	user.Nickname = reqBody.Nickname
	user.Signature = reqBody.Signature
	if err := database.UpdateUser(h.db, user); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, user, "Profile updated")
}

func (h *Handler) getPublicUserProfile(c *gin.Context) {
	user, err := database.GetUserByID(h.db, c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusNotFound, err)
		return
	}
	util.Success(c, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"nickname":   user.Nickname,
		"signature":  user.Signature,
		"avatar_url": user.AvatarURL,
	}, "ok")
}
