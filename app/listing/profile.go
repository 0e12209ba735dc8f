package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListingProfileList returns every listing of the logged in account,
// inactive ones included
func ListingProfileList(c *gin.Context, d *internal.Deps) {
	items, err := d.Listings.ListByAuthor(c.Request.Context(), middleware.Account(c).ID)
	if err != nil {
		respond.Error(c, err, "Failed to list own listings")
		return
	}

	c.JSON(http.StatusOK, items)
}

func ListingProfileFetch(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	listing, err := d.Listings.GetOwned(c.Request.Context(), id, middleware.Account(c))
	if err != nil {
		respond.Error(c, err, "Failed to fetch own listing")
		return
	}

	c.JSON(http.StatusOK, listing)
}
