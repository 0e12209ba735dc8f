package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"bitwise74/bboard/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func UserLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	if data.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Username field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if data.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Password field can't be empty",
			"requestID": requestID,
		})
		return
	}

	acc, err := d.Accounts.Authenticate(c.Request.Context(), data.Username, data.Password)
	if err != nil {
		respond.Error(c, err, "Failed to authenticate")
		return
	}

	authToken, err := security.IssueSession(d.JWTSecret, acc.ID, d.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	maxAge := int(d.SessionTTL.Seconds())

	c.SetCookie(middleware.AuthCookie, authToken, maxAge, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", d.SecureCookies, false)
	c.JSON(http.StatusOK, gin.H{
		"userID":   acc.ID,
		"username": acc.Username,
	})
}
