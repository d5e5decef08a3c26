package middlewares

import "github.com/gin-gonic/gin"

// abort writes the same error body shape the handlers use.
func abort(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"message": message,
		"code":    code,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, body)
}
