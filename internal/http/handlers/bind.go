package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON decodes the request body into out. Malformed bodies are answered with 400 (413 when
// the body exceeds the configured limit) and false is returned.
func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "body_too_large",
			fmt.Sprintf("Request body must not exceed %d bytes", tooLarge.Limit), nil)
		return false
	}

	RespondBadRequest(ctx, "Invalid request body", bindDetails(err, out, "json"))
	return false
}

// BindQuery decodes query parameters into out using its form and binding tags.
func BindQuery(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBindQuery(out); err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", bindDetails(err, out, "form"))
		return false
	}
	return true
}

// bindDetails turns a binding failure into the details object of the error body. Field names
// are reported as the client spelled them, read from tag on out's struct fields.
func bindDetails(err error, out any, tag string) gin.H {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		root := structType(out)

		fields := make([]common.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, common.FieldError{
				Field:   clientName(root, fe.StructField(), tag),
				Rule:    fe.Tag(),
				Param:   fe.Param(),
				Message: common.ValidationMessage(fe.Tag(), fe.Param()),
			})
		}
		return gin.H{"fields": fields}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	if errors.Is(err, io.EOF) {
		return gin.H{"json": "empty_body"}
	}

	// encoding/json reports the offending key path in client spelling already
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return gin.H{
			"json":  "invalid_json_type",
			"field": typeErr.Field,
			"fields": []common.FieldError{{
				Field:   typeErr.Field,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	}

	return gin.H{"reason": err.Error()}
}

func structType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

func clientName(root reflect.Type, field, tag string) string {
	if root == nil {
		return field
	}

	sf, ok := root.FieldByName(field)
	if !ok {
		return field
	}

	name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
	if name == "" || name == "-" {
		return field
	}
	return name
}
