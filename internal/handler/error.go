package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snnyvrz/booklibrary/internal/model"
	"github.com/snnyvrz/booklibrary/internal/repository"
	"github.com/snnyvrz/booklibrary/internal/validation"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, validation.ErrorResponse{
		Code:    code,
		Message: message,
		Errors:  nil,
	})
}

// writeStoreError maps an error returned by the book repository to a
// response. Anything unrecognised becomes fallbackCode with a 500, or a 503
// when the store is unreachable.
func writeStoreError(c *gin.Context, log *zap.Logger, err error, fallbackCode, fallbackMessage string) {
	var verr *model.ValidationError

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, validation.FromBookError(verr))
	case errors.Is(err, repository.ErrBookNotFound):
		writeError(c, http.StatusNotFound, "BOOK_NOT_FOUND", "book not found")
	case errors.Is(err, repository.ErrBookUnavailable):
		writeError(c, http.StatusConflict, "BOOK_UNAVAILABLE", "book is not available for borrowing")
	case errors.Is(err, repository.ErrBookNotBorrowed):
		writeError(c, http.StatusConflict, "BOOK_NOT_BORROWED", "book is not borrowed")
	case repository.IsInvalidData(err):
		log.Warn("book store rejected value", zap.Error(err))
		writeError(c, http.StatusBadRequest, "INVALID_BOOK_DATA", "the book store cannot store one of the given values")
	case repository.IsUnavailable(err):
		log.Error("book store unavailable", zap.Error(err))
		writeError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "book store is unavailable")
	default:
		log.Error(fallbackMessage, zap.Error(err))
		writeError(c, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
