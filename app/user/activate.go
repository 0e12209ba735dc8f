package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserActivate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	res, err := d.Accounts.Activate(c.Request.Context(), c.Param("sign"))
	if err != nil {
		respond.Error(c, err, "Failed to activate account")
		return
	}

	code := http.StatusOK
	if res == service.BadSignature {
		code = http.StatusBadRequest
	}

	c.JSON(code, gin.H{
		"status":    res.String(),
		"requestID": requestID,
	})
}
