package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

type passwordBody struct {
	OldPassword string `json:"old_password" form:"old_password"`
	Password1   string `json:"password1" form:"password1"`
	Password2   string `json:"password2" form:"password2"`
}

func UserChangePassword(c *gin.Context, d *internal.Deps) {
	acc := middleware.Account(c)

	var data passwordBody
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	err := d.Accounts.ChangePassword(c.Request.Context(), acc.ID, data.OldPassword, data.Password1, data.Password2)
	if err != nil {
		respond.Error(c, err, "Failed to change password")
		return
	}

	c.Status(http.StatusNoContent)
}
