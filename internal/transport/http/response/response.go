package response

import "github.com/gin-gonic/gin"

// ErrorBody is the single failure shape every endpoint returns. The HTTP
// status carries the error class: 400 for the caller's fault, 500 for ours.
type ErrorBody struct {
	Error string `json:"error"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, ErrorBody{Error: message})
}
