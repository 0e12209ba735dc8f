package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateBody struct {
	service.ListingForm
	RemoveImages []uint `form:"remove_images" json:"remove_images"`
}

func ListingUpdate(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	var data updateBody
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	files, err := formFiles(c)
	if err != nil {
		respond.BadRequest(c, err)
		return
	}

	listing, err := d.Listings.Update(c.Request.Context(), id, data.ListingForm, files, data.RemoveImages, middleware.Account(c))
	if err != nil {
		respond.Error(c, err, "Failed to update listing")
		return
	}

	c.JSON(http.StatusOK, listing)
}
