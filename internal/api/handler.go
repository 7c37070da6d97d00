package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/partnex-scoring/internal/errors"
)

// respondError writes err as {"error": message} with the status its code maps
// to and records it on the context for the request logger.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(errors.HTTPStatus(err), gin.H{"error": errors.PublicMessage(err)})
}
