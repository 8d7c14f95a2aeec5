package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/model"
)

type BookRepository interface {
	Save(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uint) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, book *model.Book) error
	Patch(ctx context.Context, id uint, patch BookPatch) (*model.Book, error)
	Delete(ctx context.Context, id uint) error
	Borrow(ctx context.Context, id uint) (*model.Book, error)
	Return(ctx context.Context, id uint) (*model.Book, error)
}

type Option func(*GormBookRepository)

// BookPatch lists the fields of a partial update. Nil fields are left as
// stored.
type BookPatch struct {
	Name          *string
	Author        *string
	YearPublished *int
	BookType      *string
	Status        *string
}

func (p BookPatch) Empty() bool {
	return p.Name == nil && p.Author == nil && p.YearPublished == nil &&
		p.BookType == nil && p.Status == nil
}

// WithStrictValidation makes Save, Update and Patch reject books that fail
// model.Book.Validate instead of storing them verbatim.
func WithStrictValidation(strict bool) Option {
	return func(r *GormBookRepository) {
		r.strict = strict
	}
}

type GormBookRepository struct {
	db     *gorm.DB
	strict bool
}

func NewGormBookRepository(db *gorm.DB, opts ...Option) *GormBookRepository {
	r := &GormBookRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save inserts a book with a zero ID, letting the store assign one, and
// otherwise overwrites the stored row with that ID. Saving a non-zero ID that
// was never stored returns ErrBookNotFound; IDs are only assigned here.
func (r *GormBookRepository) Save(ctx context.Context, book *model.Book) error {
	if book.ID != 0 {
		return r.Update(ctx, book)
	}

	if r.strict {
		if err := book.Validate(); err != nil {
			return err
		}
	}

	return wrapPersistence("create", r.db.WithContext(ctx).Create(book).Error)
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, wrapPersistence("find", err)
	}
	return &book, nil
}

func (r *GormBookRepository) List(ctx context.Context) ([]model.Book, error) {
	books := []model.Book{}
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&books).Error; err != nil {

		return nil, wrapPersistence("list", err)
	}
	return books, nil
}

func (r *GormBookRepository) Update(ctx context.Context, book *model.Book) error {
	if r.strict {
		if err := book.Validate(); err != nil {
			return err
		}
	}

	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"name":           book.Name,
			"author":         book.Author,
			"year_published": book.YearPublished,
			"book_type":      book.BookType,
			"status":         book.Status,
		})
	if result.Error != nil {
		return wrapPersistence("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Patch applies the non-nil fields of patch to the stored book inside one
// transaction and writes only those columns, so a concurrent Borrow or Return
// is never overwritten by an unrelated field change.
func (r *GormBookRepository) Patch(ctx context.Context, id uint, patch BookPatch) (*model.Book, error) {
	var book model.Book

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, "id = ?", id).Error; err != nil {
			return err
		}

		changes := map[string]any{}
		if patch.Name != nil {
			book.Name = *patch.Name
			changes["name"] = book.Name
		}
		if patch.Author != nil {
			book.Author = *patch.Author
			changes["author"] = book.Author
		}
		if patch.YearPublished != nil {
			book.YearPublished = *patch.YearPublished
			changes["year_published"] = book.YearPublished
		}
		if patch.BookType != nil {
			book.BookType = *patch.BookType
			changes["book_type"] = book.BookType
		}
		if patch.Status != nil {
			book.Status = *patch.Status
			changes["status"] = book.Status
		}

		if len(changes) == 0 {
			return nil
		}

		if r.strict {
			if err := book.Validate(); err != nil {
				return err
			}
		}

		return tx.Model(&model.Book{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrBookNotFound
		case errors.As(err, &verr):
			return nil, verr
		}
		return nil, wrapPersistence("update", err)
	}

	return &book, nil
}

// Delete removes the book permanently. Deleting a book that does not exist
// leaves the table untouched and returns ErrBookNotFound.
func (r *GormBookRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Book{}, "id = ?", id)
	if result.Error != nil {
		return wrapPersistence("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *GormBookRepository) Borrow(ctx context.Context, id uint) (*model.Book, error) {
	return r.transition(ctx, "borrow", id, model.StatusAvailable, model.StatusBorrowed, ErrBookUnavailable)
}

func (r *GormBookRepository) Return(ctx context.Context, id uint) (*model.Book, error) {
	return r.transition(ctx, "return", id, model.StatusBorrowed, model.StatusAvailable, ErrBookNotBorrowed)
}

// transition moves a book from one status to another inside a single
// transaction, so a concurrent borrow of the same book cannot both succeed.
func (r *GormBookRepository) transition(
	ctx context.Context,
	op string,
	id uint,
	from, to string,
	conflict error,
) (*model.Book, error) {
	var book model.Book

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, "id = ?", id).Error; err != nil {
			return err
		}
		if book.Status != from {
			return conflict
		}

		result := tx.Model(&model.Book{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return conflict
		}

		book.Status = to
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrBookNotFound
		case errors.Is(err, conflict):
			return nil, conflict
		}
		return nil, wrapPersistence(op, err)
	}

	return &book, nil
}
