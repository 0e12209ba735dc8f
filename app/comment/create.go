// Package comment contains the comment handlers
package comment

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"bitwise74/bboard/internal/service"
	"bitwise74/bboard/pkg/middleware"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CommentCreate stores a comment from an account or a guest that passed the
// captcha
func CommentCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id, ok := respond.ParamID(c, "id")
	if !ok {
		return
	}

	var data service.CommentForm
	if err := c.ShouldBind(&data); err != nil {
		respond.BadRequest(c, err)
		return
	}

	comment, err := d.Comments.Create(c.Request.Context(), id, data, middleware.Account(c))
	if err != nil {
		// The comment is stored at this point, only the author wasn't told
		if comment != nil && errors.Is(err, service.ErrDelivery) && !d.StrictCommentDelivery {
			c.JSON(http.StatusCreated, gin.H{
				"comment":   comment,
				"warning":   "Comment saved but the listing author couldn't be notified",
				"requestID": requestID,
			})
			return
		}

		respond.Error(c, err, "Failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": comment,
	})
}
