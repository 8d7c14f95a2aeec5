package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/snnyvrz/booklibrary/internal/model"
	"github.com/snnyvrz/booklibrary/internal/repository"
)

type fakeBookRepo struct {
	SaveFn     func(ctx context.Context, b *model.Book) error
	FindByIDFn func(ctx context.Context, id uint) (*model.Book, error)
	ListFn     func(ctx context.Context) ([]model.Book, error)
	UpdateFn   func(ctx context.Context, b *model.Book) error
	PatchFn    func(ctx context.Context, id uint, p repository.BookPatch) (*model.Book, error)
	DeleteFn   func(ctx context.Context, id uint) error
	BorrowFn   func(ctx context.Context, id uint) (*model.Book, error)
	ReturnFn   func(ctx context.Context, id uint) (*model.Book, error)
}

func (f *fakeBookRepo) Save(ctx context.Context, b *model.Book) error {
	if f.SaveFn != nil {
		return f.SaveFn(ctx, b)
	}
	return nil
}

func (f *fakeBookRepo) FindByID(ctx context.Context, id uint) (*model.Book, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, repository.ErrBookNotFound
}

func (f *fakeBookRepo) List(ctx context.Context) ([]model.Book, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx)
	}
	return []model.Book{}, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, b *model.Book) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, b)
	}
	return nil
}

func (f *fakeBookRepo) Patch(ctx context.Context, id uint, p repository.BookPatch) (*model.Book, error) {
	if f.PatchFn != nil {
		return f.PatchFn(ctx, id, p)
	}
	return nil, repository.ErrBookNotFound
}

func (f *fakeBookRepo) Delete(ctx context.Context, id uint) error {
	if f.DeleteFn != nil {
		return f.DeleteFn(ctx, id)
	}
	return nil
}

func (f *fakeBookRepo) Borrow(ctx context.Context, id uint) (*model.Book, error) {
	if f.BorrowFn != nil {
		return f.BorrowFn(ctx, id)
	}
	return nil, repository.ErrBookNotFound
}

func (f *fakeBookRepo) Return(ctx context.Context, id uint) (*model.Book, error) {
	if f.ReturnFn != nil {
		return f.ReturnFn(ctx, id)
	}
	return nil, repository.ErrBookNotFound
}

func setupBookRouterWithRepo(bookRepo repository.BookRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewBookHandler(bookRepo, zap.NewNop())
	h.RegisterRoutes(r.Group(""))

	return r
}

func setupTestRouter(db *gorm.DB, opts ...repository.Option) *gin.Engine {
	r := setupBookRouterWithRepo(repository.NewGormBookRepository(db, opts...))

	hh := NewHealthHandler(db, time.Now(), "test")
	hh.RegisterRoutes(r)

	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return v
}
