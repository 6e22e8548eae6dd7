package response

import "github.com/gin-gonic/gin"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Validation writes a 422 with per-field failures.
func Validation(c *gin.Context, fields map[string]string) {
	ErrorWithDetails(c, 422, "VALIDATION_ERROR", "Validation failed", fields)
}

// Internal hides err from the client and records it on the gin context so
// middleware.ErrorLogger picks it up.
func Internal(c *gin.Context, err error) {
	_ = c.Error(err)
	Error(c, 500, "INTERNAL_ERROR", "Internal server error")
}
