package rubric

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RubricFetch(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	r, err := d.Rubrics.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err, "Failed to fetch rubric")
		return
	}

	c.JSON(http.StatusOK, r)
}
