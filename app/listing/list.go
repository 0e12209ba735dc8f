// Package listing contains the listing handlers
package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListingList serves the public index, optionally narrowed to one rubric and
// a keyword
func ListingList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	filter := service.ListingFilter{
		Keyword: c.Query("keyword"),
	}

	if r := c.Query("rubric"); r != "" {
		id, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid rubric",
				"requestID": requestID,
			})
			return
		}

		filter.RubricID = uint(id)
	}

	// Garbage page numbers fall back to the first page
	filter.Page, _ = strconv.Atoi(c.Query("page"))

	page, err := d.Listings.ListPublic(c.Request.Context(), filter)
	if err != nil {
		respond.Error(c, err, "Failed to list listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        page.Items,
		"page":         page.Number,
		"page_size":    page.PageSize,
		"total":        page.Total,
		"num_pages":    page.NumPages,
		"has_next":     page.HasNext(),
		"has_previous": page.HasPrevious(),
	})
}
