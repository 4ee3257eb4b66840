package server

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the maxbytes tag to gin's validator and makes
// field errors carry JSON field names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("maxbytes", validateMaxBytes)
	})
}

// validateMaxBytes checks the byte length of a string (or *string) field
// against the tag parameter.
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	return len(field.String()) <= limit
}

// FieldError is one entry of a 422 response body.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// bind decodes the JSON body into req. On failure it writes a 422 response
// and returns false.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": bindingErrors(err)})
		return false
	}
	return true
}

func bindingErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		loc := []string{"body", fe.Field()}
		switch fe.Tag() {
		case "required":
			out = append(out, FieldError{Loc: loc, Msg: "field required", Type: "value_error.missing"})
		case "maxbytes":
			out = append(out, FieldError{
				Loc:  loc,
				Msg:  "ensure this value has at most " + fe.Param() + " bytes",
				Type: "value_error.any_str.max_length",
			})
		default:
			out = append(out, FieldError{Loc: loc, Msg: fe.Error(), Type: "value_error." + fe.Tag()})
		}
	}
	return out
}
