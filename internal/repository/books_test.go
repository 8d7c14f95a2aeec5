package repository

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/model"
	"github.com/snnyvrz/booklibrary/internal/testutil"
)

func newTestRepo(t *testing.T, opts ...Option) (*GormBookRepository, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t)
	return NewGormBookRepository(db, opts...), db
}

func saveBook(t *testing.T, repo *GormBookRepository, book *model.Book) *model.Book {
	t.Helper()

	require.NoError(t, repo.Save(context.Background(), book))
	return book
}

func TestGormBookRepository_Save_ValidData(t *testing.T) {
	repo, db := newTestRepo(t)

	book := saveBook(t, repo, model.New("Test Book", "Test Author", 2020, "fiction"))

	assert.NotZero(t, book.ID)
	assert.Equal(t, "Test Book", book.Name)
	assert.Equal(t, "Test Author", book.Author)
	assert.Equal(t, 2020, book.YearPublished)
	assert.Equal(t, "fiction", book.BookType)
	assert.Equal(t, model.StatusAvailable, book.Status)

	var stored model.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, *book, stored)
}

func TestGormBookRepository_Save_AssignsUniqueIDs(t *testing.T) {
	repo, _ := newTestRepo(t)

	seen := map[uint]bool{}
	for i := 0; i < 10; i++ {
		book := saveBook(t, repo, model.New("Book", "Author", 2000+i, "fiction"))
		require.NotZero(t, book.ID)
		require.False(t, seen[book.ID], "id %d assigned twice", book.ID)
		seen[book.ID] = true
	}
}

func TestGormBookRepository_Save_DefaultStatus(t *testing.T) {
	repo, db := newTestRepo(t)

	book := saveBook(t, repo, &model.Book{
		Name:          "Default Status Book",
		Author:        "Author",
		YearPublished: 2021,
		BookType:      "non-fiction",
	})

	assert.Equal(t, model.StatusAvailable, book.Status)

	var stored model.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, model.StatusAvailable, stored.Status)
}

func TestGormBookRepository_Save_CustomStatus(t *testing.T) {
	repo, db := newTestRepo(t)

	book := saveBook(t, repo, model.New("Custom Status Book", "Author", 2022, "fiction", model.StatusBorrowed))

	var stored model.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	assert.Equal(t, model.StatusBorrowed, stored.Status)
}

func TestGormBookRepository_Save_SecondSaveUpdates(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Saved Twice", "Author", 2020, "fiction"))
	id := book.ID

	book.Status = model.StatusBorrowed
	book.Name = "Saved Twice, Renamed"
	require.NoError(t, repo.Save(ctx, book))
	assert.Equal(t, id, book.ID)

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, *book, *stored)
	assert.EqualValues(t, 1, testutil.CountBooks(t, db))
}

func TestGormBookRepository_Save_RejectsUnknownID(t *testing.T) {
	repo, db := newTestRepo(t)

	book := model.New("Chosen ID", "Author", 2020, "fiction")
	book.ID = 777

	err := repo.Save(context.Background(), book)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.EqualValues(t, 0, testutil.CountBooks(t, db))
}

func TestGormBookRepository_Render(t *testing.T) {
	repo, _ := newTestRepo(t)

	book := saveBook(t, repo, model.New("Repr Test Book", "Repr Author", 2023, "fiction"))

	s := book.String()
	assert.Contains(t, s, "Repr Test Book")
	assert.Contains(t, s, "Repr Author")
	assert.Contains(t, s, "2023")
}

// Permissive mode stores whatever it is given, verbatim.
func TestGormBookRepository_Save_PermissiveAcceptsMalformed(t *testing.T) {
	tests := []struct {
		name string
		book *model.Book
	}{
		{"empty name", model.New("", "Author", 2020, "fiction")},
		{"empty author", model.New("Book Name", "", 2020, "fiction")},
		{"negative year", model.New("Negative Year Book", "Author", -100, "fiction")},
		{"zero year", model.New("Zero Year Book", "Author", 0, "fiction")},
		{"very large year", model.New("Large Year Book", "Author", 99999, "fiction")},
		{"very old year", model.New("Ancient Book", "Ancient Author", -5000, "fiction")},
		{"max int64 year", model.New("Max Year Book", "Author", math.MaxInt64, "fiction")},
		{"min int64 year", model.New("Min Year Book", "Author", math.MinInt64, "fiction")},
		{"name of 100", model.New(strings.Repeat("A", 100), "Author", 2020, "fiction")},
		{"author of 100", model.New("Book Name", strings.Repeat("B", 100), 2020, "fiction")},
		{"name of 1000", model.New(strings.Repeat("A", 1000), "Author", 2020, "fiction")},
		{"author of 1000", model.New("Book Name", strings.Repeat("B", 1000), 2020, "fiction")},
		{"whitespace only", model.New("   \n\t   ", "Author", 2020, "fiction")},
		{"newlines", model.New("Book\nName\nWith\nNewlines", "Author", 2020, "fiction")},
		{"null byte", model.New("Book\x00Name", "Author", 2020, "fiction")},
		{"special characters", model.New("!@#$%^&*()_+-=[]{}|;':\",./<>?`~", "Author", 2020, "fiction")},
		{"unicode", model.New("测试书📚🚀🎉中文日本語한국어", "Unicode Author 测试", 2020, "fiction")},
		{"empty type", model.New("Book Name", "Author", 2020, "")},
		{"free text status", model.New("Book Name", "Author", 2020, "fiction", "lost")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, _ := newTestRepo(t)
			ctx := context.Background()

			want := *tc.book
			require.NoError(t, repo.Save(ctx, tc.book))
			require.NotZero(t, tc.book.ID)

			got, err := repo.FindByID(ctx, tc.book.ID)
			require.NoError(t, err)

			want.ID = tc.book.ID
			assert.Equal(t, want, *got)
			assert.Equal(t, len(want.Name), len(got.Name))
			assert.Equal(t, len(want.Author), len(got.Author))
		})
	}
}

func TestGormBookRepository_Save_UnicodeRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	name := "测试书📚🚀🎉"
	saveBook(t, repo, model.New(name, "Unicode Author 测试", 2020, "fiction"))

	books, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, []byte(name), []byte(books[0].Name))
	assert.Equal(t, "Unicode Author 测试", books[0].Author)
}

var injectionPayloads = []string{
	"'; DROP TABLE books; --",
	"' OR '1'='1",
	"'; DELETE FROM books WHERE '1'='1",
	"' UNION SELECT * FROM users --",
	"'; DROP TABLE books; --<script>alert('XSS')</script>",
	"\"; UPDATE books SET status = 'borrowed'; --",
}

func TestGormBookRepository_SQLInjectionIsStoredAsData(t *testing.T) {
	fields := map[string]func(payload string) *model.Book{
		"name": func(p string) *model.Book {
			return model.New(p, "Author", 2020, "fiction")
		},
		"author": func(p string) *model.Book {
			return model.New("Book Name", p, 2020, "fiction")
		},
		"book_type": func(p string) *model.Book {
			return model.New("Book Name", "Author", 2020, p)
		},
		"status": func(p string) *model.Book {
			return model.New("Book Name", "Author", 2020, "fiction", p)
		},
	}

	for field, build := range fields {
		for _, payload := range injectionPayloads {
			t.Run(field+"/"+payload, func(t *testing.T) {
				repo, db := newTestRepo(t)
				ctx := context.Background()

				first := saveBook(t, repo, model.New("Existing Book", "Existing Author", 1999, "fiction"))
				second := saveBook(t, repo, model.New("Another Book", "Another Author", 2001, "non-fiction"))

				attack := build(payload)
				want := *attack
				require.NoError(t, repo.Save(ctx, attack))

				books, err := repo.List(ctx)
				require.NoError(t, err, "books table must remain queryable")
				require.Len(t, books, 3)

				assert.Equal(t, *first, books[0])
				assert.Equal(t, *second, books[1])

				want.ID = attack.ID
				assert.Equal(t, want, books[2])

				assert.True(t, db.Migrator().HasTable(&model.Book{}))
			})
		}
	}
}

func TestGormBookRepository_MarkupIsStoredVerbatim(t *testing.T) {
	payloads := []string{
		"<script>alert('XSS')</script>",
		"javascript:alert('XSS')",
		"onerror=alert('XSS')",
		"\"><img src=x onerror=alert('XSS')>",
		"<svg onload=alert('XSS')>",
	}

	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, p := range payloads {
		saveBook(t, repo, model.New(p, p, 2020, "fiction"))
	}

	books, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, len(payloads))

	for i, p := range payloads {
		assert.Equal(t, p, books[i].Name)
		assert.Equal(t, p, books[i].Author)
	}
}

func TestGormBookRepository_List_OrderAndIdempotence(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	a := saveBook(t, repo, model.New("A", "Author A", 2001, "fiction"))
	b := saveBook(t, repo, model.New("B", "Author B", 2002, "fiction"))
	c := saveBook(t, repo, model.New("C", "Author C", 2003, "fiction"))

	first, err := repo.List(ctx)
	require.NoError(t, err)
	second, err := repo.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []model.Book{*a, *b, *c}, first)
}

func TestGormBookRepository_List_ReflectsLatestState(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a := saveBook(t, repo, model.New("A", "Author", 2001, "fiction"))

	books, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)

	saveBook(t, repo, model.New("B", "Author", 2002, "fiction"))
	require.NoError(t, repo.Delete(ctx, a.ID))

	books, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "B", books[0].Name)
}

func TestGormBookRepository_FindByID_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.FindByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGormBookRepository_Update(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Old", "Old Author", 1990, "fiction"))

	book.Name = "New"
	book.Author = "New Author"
	book.YearPublished = 1991
	book.BookType = "non-fiction"
	book.Status = "lost"
	require.NoError(t, repo.Update(ctx, book))

	got, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, *book, *got)
}

func TestGormBookRepository_Update_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Update(context.Background(), &model.Book{ID: 99, Name: "Ghost"})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGormBookRepository_Patch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Old", "Author", 2020, "fiction"))

	name := "New"
	year := 2021
	got, err := repo.Patch(ctx, book.ID, BookPatch{Name: &name, YearPublished: &year})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, 2021, got.YearPublished)
	assert.Equal(t, "Author", got.Author)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, *got, *stored)
}

func TestGormBookRepository_Patch_KeepsStatusChangedElsewhere(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Loanable", "Author", 2020, "fiction"))

	// A client read the book as available, then someone borrowed it before
	// the client's rename arrived.
	_, err := repo.Borrow(ctx, book.ID)
	require.NoError(t, err)

	name := "Renamed"
	got, err := repo.Patch(ctx, book.ID, BookPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, model.StatusBorrowed, got.Status)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, model.StatusBorrowed, stored.Status)
}

func TestGormBookRepository_Patch_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	name := "Ghost"
	_, err := repo.Patch(context.Background(), 99, BookPatch{Name: &name})
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGormBookRepository_Patch_Strict(t *testing.T) {
	repo, _ := newTestRepo(t, WithStrictValidation(true))
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Valid", "Author", 2020, "fiction"))

	blank := "   "
	_, err := repo.Patch(ctx, book.ID, BookPatch{Author: &blank})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Author", stored.Author)
}

func TestGormBookRepository_Delete(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	keep := saveBook(t, repo, model.New("Keep", "Author", 2020, "fiction"))
	gone := saveBook(t, repo, model.New("Gone", "Author", 2020, "fiction"))

	require.NoError(t, repo.Delete(ctx, gone.ID))

	_, err := repo.FindByID(ctx, gone.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.EqualValues(t, 1, testutil.CountBooks(t, db))

	_, err = repo.FindByID(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestGormBookRepository_Delete_AbsentSignalsNotFound(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Once", "Author", 2020, "fiction"))
	require.NoError(t, repo.Delete(ctx, book.ID))

	err := repo.Delete(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.EqualValues(t, 0, testutil.CountBooks(t, db))
}

func TestGormBookRepository_BorrowAndReturn(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Loanable", "Author", 2020, "fiction"))

	borrowed, err := repo.Borrow(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBorrowed, borrowed.Status)

	_, err = repo.Borrow(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	returned, err := repo.Return(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, returned.Status)

	_, err = repo.Return(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotBorrowed)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, stored.Status)
}

func TestGormBookRepository_Borrow_OtherStatusIsUnavailable(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Lost Book", "Author", 2020, "fiction", "lost"))

	_, err := repo.Borrow(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "lost", stored.Status)
}

func TestGormBookRepository_BorrowReturn_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Borrow(ctx, 7)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = repo.Return(ctx, 7)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGormBookRepository_Strict_RejectsWithoutWriting(t *testing.T) {
	tests := []struct {
		name string
		book *model.Book
	}{
		{"empty name", model.New("", "Author", 2020, "fiction")},
		{"whitespace author", model.New("Book", "  \t ", 2020, "fiction")},
		{"name of 100", model.New(strings.Repeat("A", 100), "Author", 2020, "fiction")},
		{"author of 100", model.New("Book", strings.Repeat("B", 100), 2020, "fiction")},
		{"negative year", model.New("Book", "Author", -100, "fiction")},
		{"huge year", model.New("Book", "Author", 99999, "fiction")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, db := newTestRepo(t, WithStrictValidation(true))

			err := repo.Save(context.Background(), tc.book)

			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "expected *model.ValidationError, got %v", err)
			assert.Zero(t, tc.book.ID)
			assert.EqualValues(t, 0, testutil.CountBooks(t, db))
		})
	}
}

func TestGormBookRepository_Strict_AcceptsValid(t *testing.T) {
	repo, _ := newTestRepo(t, WithStrictValidation(true))

	book := saveBook(t, repo, model.New(strings.Repeat("A", 64), "Author", 2020, "fiction"))
	assert.NotZero(t, book.ID)
	assert.Len(t, book.Name, 64)
}

func TestGormBookRepository_Strict_Update(t *testing.T) {
	repo, _ := newTestRepo(t, WithStrictValidation(true))
	ctx := context.Background()

	book := saveBook(t, repo, model.New("Valid", "Author", 2020, "fiction"))

	book.Name = ""
	err := repo.Update(ctx, book)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	stored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valid", stored.Name)
}

func TestGormBookRepository_PersistenceError(t *testing.T) {
	db := testutil.NewEmptyTestDB(t)
	repo := NewGormBookRepository(db)
	ctx := context.Background()

	err := repo.Save(ctx, model.New("Book", "Author", 2020, "fiction"))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create", perr.Op)

	_, err = repo.List(ctx)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "list", perr.Op)

	err = repo.Delete(ctx, 1)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "delete", perr.Op)
}

func TestGormBookRepository_ClosedStoreIsUnavailable(t *testing.T) {
	repo, db := newTestRepo(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.List(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err), "expected unavailable, got %v", err)
}
