package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/snnyvrz/booklibrary/internal/model"
)

func parseBookID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(c, http.StatusBadRequest,
			"INVALID_BOOK_ID",
			"invalid book id",
		)
		return 0, false
	}
	return uint(id), true
}

func toBook(b model.Book) Book {
	return Book{
		ID:            b.ID,
		Name:          b.Name,
		Author:        b.Author,
		YearPublished: b.YearPublished,
		BookType:      b.BookType,
		Status:        b.Status,
		Display:       b.String(),
	}
}

func toBookResponse(b model.Book) BookResponse {
	return BookResponse{
		Data: toBook(b),
	}
}

func toListBooksResponse(books []model.Book) ListBooksResponse {
	data := make([]Book, 0, len(books))
	for _, b := range books {
		data = append(data, toBook(b))
	}

	return ListBooksResponse{
		Data:  data,
		Total: len(data),
	}
}
