package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListingFetch returns an active listing with its visible comments
func ListingFetch(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	listing, err := d.Listings.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err, "Failed to fetch listing")
		return
	}

	comments, err := d.Comments.ListActive(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err, "Failed to fetch comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing":  listing,
		"comments": comments,
	})
}
