package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserDelete removes the account behind the session with everything it owns
func UserDelete(c *gin.Context, d *internal.Deps) {
	acc := middleware.Account(c)

	if err := d.Accounts.Delete(c.Request.Context(), acc.ID); err != nil {
		respond.Error(c, err, "Failed to delete account")
		return
	}

	clearSession(c, d)
	c.Status(http.StatusNoContent)
}
