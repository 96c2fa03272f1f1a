package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Alive returns the liveness probe handler. It confirms only that the
// process is up and serving HTTP; upstream trouble never fails it.
func Alive() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
