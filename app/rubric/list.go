// Package rubric contains the rubric handlers
package rubric

import (
	"bitwise74/bboard/app/respond"
	"bitwise74/bboard/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RubricList(c *gin.Context, d *internal.Deps) {
	tree, err := d.Rubrics.Tree(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "Failed to list rubrics")
		return
	}

	c.JSON(http.StatusOK, tree)
}
