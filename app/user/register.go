// Package user contains the account handlers
package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func UserRegister(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data service.RegisterForm
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	reg, err := d.Accounts.Register(c.Request.Context(), data)
	if err != nil {
		respond.Error(c, err, "Failed to register account")
		return
	}

	res := gin.H{
		"id":              reg.Account.ID,
		"username":        reg.Account.Username,
		"email":           reg.Account.Email,
		"is_active":       reg.Account.IsActive,
		"activation_sent": reg.DeliveryErr == nil,
		"requestID":       requestID,
	}

	if reg.DeliveryErr != nil {
		res["warning"] = "Account created but the activation e-mail couldn't be sent, request a new one later"
	}

	c.JSON(http.StatusCreated, res)
}
