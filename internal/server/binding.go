package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type bindSource int

const (
	fromBody bindSource = iota
	fromPath
	fromQuery
)

// fieldMessages maps "Field.tag" to the message reported when that
// validation fails.
type fieldMessages map[string]string

// message picks the first failed rule with a configured message. Decoding
// errors get a generic description; anything else gets fallback.
func (m fieldMessages) message(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := m[verr.Field()+"."+verr.Tag()]; ok {
				return msg
			}
		}
		return fallback
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field + " has the wrong type"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "malformed json body"
	}
	return fallback
}

// bind fills req from src and writes the error response when that fails.
// Path parameters that do not validate cannot name a resource, so they
// answer 404.
func bind(c *gin.Context, src bindSource, req any, messages fieldMessages, fallback string) bool {
	var err error
	switch src {
	case fromPath:
		err = c.ShouldBindUri(req)
	case fromQuery:
		err = c.ShouldBindQuery(req)
	default:
		err = c.ShouldBindJSON(req)
	}
	if err == nil {
		return true
	}
	if src == fromPath {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": messages.message(err, fallback)})
	return false
}
