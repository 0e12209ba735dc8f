package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListingDelete(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	if err := d.Listings.Delete(c.Request.Context(), id, middleware.Account(c)); err != nil {
		respond.Error(c, err, "Failed to delete listing")
		return
	}

	c.Status(http.StatusNoContent)
}
