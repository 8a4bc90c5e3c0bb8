package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func RespondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}

// RespondValidationError answers 400 and lists the failing fields when err
// comes from the validator.
func RespondValidationError(c *gin.Context, err error) {
	body := ErrorResponse{Error: MsgInvalidRequest}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = fe.Tag()
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
