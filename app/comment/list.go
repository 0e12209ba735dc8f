package comment

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func CommentList(c *gin.Context, d *internal.Deps) {
	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	comments, err := d.Comments.ListActive(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err, "Failed to list comments")
		return
	}

	c.JSON(http.StatusOK, comments)
}
