package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snnyvrz/booklibrary/internal/model"
	"github.com/snnyvrz/booklibrary/internal/repository"
	"github.com/snnyvrz/booklibrary/internal/validation"
)

type BookHandler struct {
	repo repository.BookRepository
	log  *zap.Logger
}

func NewBookHandler(repo repository.BookRepository, log *zap.Logger) *BookHandler {
	return &BookHandler{repo: repo, log: log}
}

func (h *BookHandler) RegisterRoutes(r *gin.RouterGroup) {
	books := r.Group("/books")
	{
		books.GET("", h.ListBooks)
		books.POST("", h.CreateBook)
		books.GET("/:id", h.GetBookByID)
		books.PATCH("/:id", h.UpdateBook)
		books.DELETE("/:id", h.DeleteBook)
		books.POST("/:id/borrow", h.BorrowBook)
		books.POST("/:id/return", h.ReturnBook)
	}
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Store a new book. Fields are saved verbatim unless strict validation is enabled; status defaults to "available".
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        payload  body      CreateBookRequest          true  "Book to create"
// @Success      201      {object}  BookResponse
// @Failure      400      {object}  validation.ErrorResponse   "Malformed body or strict validation failure"
// @Failure      500      {object}  validation.ErrorResponse   "Internal server error"
// @Failure      503      {object}  validation.ErrorResponse   "Store unavailable"
// @Router       /books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}

	book := model.New(req.Name, req.Author, req.YearPublished, req.BookType, req.Status)

	if err := h.repo.Save(c.Request.Context(), book); err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_CREATE_FAILED",
			"failed to create book",
		)
		return
	}

	c.JSON(http.StatusCreated, toBookResponse(*book))
}

// ListBooks godoc
// @Summary      List books
// @Description  Get every stored book in storage order
// @Tags         books
// @Produce      json
// @Success      200  {object}  ListBooksResponse
// @Failure      500  {object}  validation.ErrorResponse   "Internal server error"
// @Failure      503  {object}  validation.ErrorResponse   "Store unavailable"
// @Router       /books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.repo.List(c.Request.Context())
	if err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_LIST_FAILED",
			"failed to fetch books",
		)
		return
	}

	c.JSON(http.StatusOK, toListBooksResponse(books))
}

// GetBookByID godoc
// @Summary      Get a book by ID
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  BookResponse
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      500  {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [get]
func (h *BookHandler) GetBookByID(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_FETCH_FAILED",
			"failed to fetch book",
		)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(*book))
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Partially update a book by its ID. Only the given fields are written.
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id       path      int                 true  "Book ID"
// @Param        payload  body      UpdateBookRequest   true  "Fields to update"
// @Success      200      {object}  BookResponse
// @Failure      400      {object}  validation.ErrorResponse   "Invalid ID or payload"
// @Failure      404      {object}  validation.ErrorResponse   "Book not found"
// @Failure      500      {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [patch]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	var req UpdateBookRequest
	if !validation.BindAndValidateJSON(c, &req) {
		return
	}

	patch := repository.BookPatch{
		Name:          req.Name,
		Author:        req.Author,
		YearPublished: req.YearPublished,
		BookType:      req.BookType,
		Status:        req.Status,
	}
	if patch.Empty() {
		writeError(c, http.StatusBadRequest,
			"NO_FIELDS_TO_UPDATE",
			"at least one field must be provided to update",
		)
		return
	}

	book, err := h.repo.Patch(c.Request.Context(), id, patch)
	if err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_UPDATE_FAILED",
			"failed to update book",
		)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(*book))
}

// DeleteBook godoc
// @Summary      Delete a book
// @Description  Delete a book by its ID. Deleting a missing book returns 404.
// @Tags         books
// @Produce      json
// @Param        id   path      int     true  "Book ID"
// @Success      204  {string}  string  "No content"
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      500  {object}  validation.ErrorResponse   "Internal server error"
// @Router       /books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_DELETE_FAILED",
			"failed to delete book",
		)
		return
	}

	c.Status(http.StatusNoContent)
}

// BorrowBook godoc
// @Summary      Borrow a book
// @Description  Mark an available book as borrowed
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  BookResponse
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      409  {object}  validation.ErrorResponse   "Book is not available"
// @Router       /books/{id}/borrow [post]
func (h *BookHandler) BorrowBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.repo.Borrow(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_BORROW_FAILED",
			"failed to borrow book",
		)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(*book))
}

// ReturnBook godoc
// @Summary      Return a book
// @Description  Mark a borrowed book as available again
// @Tags         books
// @Produce      json
// @Param        id   path      int  true  "Book ID"
// @Success      200  {object}  BookResponse
// @Failure      400  {object}  validation.ErrorResponse   "Invalid ID"
// @Failure      404  {object}  validation.ErrorResponse   "Book not found"
// @Failure      409  {object}  validation.ErrorResponse   "Book is not borrowed"
// @Router       /books/{id}/return [post]
func (h *BookHandler) ReturnBook(c *gin.Context) {
	id, ok := parseBookID(c)
	if !ok {
		return
	}

	book, err := h.repo.Return(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, h.log, err,
			"BOOK_RETURN_FAILED",
			"failed to return book",
		)
		return
	}

	c.JSON(http.StatusOK, toBookResponse(*book))
}
