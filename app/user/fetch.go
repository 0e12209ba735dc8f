package user

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserFetch returns the account behind the session together with its listings
func UserFetch(c *gin.Context, d *internal.Deps) {
	acc := middleware.Account(c)

	listings, err := d.Listings.ListByAuthor(c.Request.Context(), acc.ID)
	if err != nil {
		respond.Error(c, err, "Failed to fetch listings of user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":  acc,
		"listings": listings,
	})
}
