package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"whatsapp-gateway/internal/store"

	"github.com/gin-gonic/gin"
)

const maxLimit = 1000

// queryLimit reads a positive ?limit= value, capped at maxLimit.
func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg + ": not found"})
		return
	}
	log.Printf("%s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
