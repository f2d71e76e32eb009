package api

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

type ApiResponse struct {
	Errors []string `json:"errors,omitempty"`
	Data   any      `json:"data,omitempty"`
}

func ResultData(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, ApiResponse{Data: obj})
}

func ResultSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, ApiResponse{})
}

func ResultError(c *gin.Context, errors []string) {
	if len(errors) > 0 {
		c.JSON(http.StatusBadRequest, ApiResponse{Errors: errors})
	} else {
		c.JSON(http.StatusInternalServerError, ApiResponse{Errors: []string{"unknownError"}})
	}
}

// ResultConflict reports a recognizable duplicate condition, e.g. adding
// a symbol that is already tracked.
func ResultConflict(c *gin.Context, errors []string) {
	c.JSON(http.StatusConflict, ApiResponse{Errors: errors})
}

func ResultNotFound(c *gin.Context, errors []string) {
	c.JSON(http.StatusNotFound, ApiResponse{Errors: errors})
}
