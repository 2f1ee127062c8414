package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type bindMessages map[string]map[string]string

// requestError carries a message that is safe to return to the client.
type requestError string

func (e requestError) Error() string {
	return string(e)
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": resolveBindError(err, messages, fallback)})
		return false
	}
	return true
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": resolveBindError(err, messages, fallback)})
		return false
	}
	return true
}

// bindPayload decodes a websocket payload and runs the same validators as the
// HTTP binders.
func bindPayload(data json.RawMessage, req any, messages bindMessages, fallback string) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, req); err != nil {
		return requestError(fallbackMessage(fallback))
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return requestError(resolveBindError(err, messages, fallback))
	}
	return nil
}

func resolveBindError(err error, messages bindMessages, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if fieldMsgs, ok := messages[verr.Field()]; ok {
				if msg, ok := fieldMsgs[verr.Tag()]; ok {
					return msg
				}
			}
		}
	}
	return fallbackMessage(fallback)
}

func fallbackMessage(fallback string) string {
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}
