package handler

// CreateBookRequest carries no content rules: every string and any integer
// year is accepted and handed to the store as given.
type CreateBookRequest struct {
	Name          string `json:"name" example:"Dune"`
	Author        string `json:"author" example:"Frank Herbert"`
	YearPublished int    `json:"year_published" example:"1965"`
	BookType      string `json:"book_type" example:"fiction"`
	Status        string `json:"status" example:"available"`
}

type UpdateBookRequest struct {
	Name          *string `json:"name"`
	Author        *string `json:"author"`
	YearPublished *int    `json:"year_published"`
	BookType      *string `json:"book_type"`
	Status        *string `json:"status"`
}

type Book struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Author        string `json:"author"`
	YearPublished int    `json:"year_published"`
	BookType      string `json:"book_type"`
	Status        string `json:"status"`
	Display       string `json:"display"`
}

type BookResponse struct {
	Data Book `json:"data"`
}

type ListBooksResponse struct {
	Data  []Book `json:"data"`
	Total int    `json:"total"`
}
