package listing

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/middleware"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListingCreate publishes a listing from a multipart form. Images are sent
// as repeated "images" parts.
func ListingCreate(c *gin.Context, d *internal.Deps) {
	var data service.ListingForm
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	files, err := formFiles(c)
	if err != nil {
		respond.BadRequest(c, err)
		return
	}

	listing, err := d.Listings.Publish(c.Request.Context(), data, files, middleware.Account(c))
	if err != nil {
		respond.Error(c, err, "Failed to publish listing")
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// formFiles returns the uploaded images, if the request is a multipart form
// at all
func formFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	if c.ContentType() != "multipart/form-data" {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	return form.File["images"], nil
}
