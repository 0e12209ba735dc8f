package user

import (
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserLogout(c *gin.Context, d *internal.Deps) {
	clearSession(c, d)
	c.Status(http.StatusNoContent)
}

func clearSession(c *gin.Context, d *internal.Deps) {
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", d.SecureCookies, true)
	c.SetCookie("logged_in", "", -1, "/", "", d.SecureCookies, false)
}
