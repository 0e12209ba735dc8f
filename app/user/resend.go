package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

type resendBody struct {
	Email string `json:"email" form:"email"`
}

func UserResendActivation(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resendBody
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	if data.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if err := d.Accounts.ResendActivation(c.Request.Context(), data.Email); err != nil {
		respond.Error(c, err, "Failed to resend activation mail")
		return
	}

	c.Status(http.StatusNoContent)
}
