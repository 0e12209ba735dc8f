package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserUpdate(c *gin.Context, d *internal.Deps) {
	acc := middleware.Account(c)

	// Missing fields keep their current value
	data := service.ProfileForm{
		Username:  acc.Username,
		Email:     acc.Email,
		FirstName: acc.FirstName,
		LastName:  acc.LastName,
	}
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	updated, err := d.Accounts.UpdateProfile(c.Request.Context(), acc.ID, data)
	if err != nil {
		respond.Error(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, updated)
}
