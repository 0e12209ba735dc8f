package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListingLatest(c *gin.Context, d *internal.Deps) {
	items, err := d.Listings.Latest(c.Request.Context(), service.LatestCount)
	if err != nil {
		respond.Error(c, err, "Failed to list latest listings")
		return
	}

	c.JSON(http.StatusOK, items)
}
