package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookstore-backend/api/responses"
	"github.com/pageturn/bookstore-backend/api/validators"
	booksvc "github.com/pageturn/bookstore-backend/internal/books"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/logger"
)

// BookList serves the public catalog browse endpoint with cursor pagination.
func BookList(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := bookListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func BookDetail(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

type createBookRequest struct {
	Title         string  `json:"title" validate:"required"`
	Author        string  `json:"author" validate:"required"`
	Description   *string `json:"description,omitempty"`
	ISBN          *string `json:"isbn,omitempty"`
	Price         string  `json:"price" validate:"required"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	StockQuantity int     `json:"stock_quantity" validate:"min=0"`
	CategoryID    *string `json:"category_id,omitempty"`
}

func AdminBookCreate(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

type updateBookRequest struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Description   *string `json:"description,omitempty"`
	ISBN          *string `json:"isbn,omitempty"`
	Price         *string `json:"price,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty" validate:"omitempty,min=0"`
	CategoryID    *string `json:"category_id,omitempty"`
}

func AdminBookUpdate(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}

func AdminBookDelete(svc booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func bookListFilters(r *http.Request) (booksvc.ListFilters, error) {
	filters := booksvc.ListFilters{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return booksvc.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
		}
		filters.CategoryID = &id
	}

	min, err := parsePriceParam(r, "price_min")
	if err != nil {
		return booksvc.ListFilters{}, err
	}
	filters.PriceMin = min

	max, err := parsePriceParam(r, "price_max")
	if err != nil {
		return booksvc.ListFilters{}, err
	}
	filters.PriceMax = max

	return filters, nil
}

func parsePriceParam(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).
			WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return value, nil
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category_id")
	}
	return &id, nil
}

func (r createBookRequest) toCreateInput() (booksvc.CreateBookInput, error) {
	price, err := parsePrice(r.Price)
	if err != nil {
		return booksvc.CreateBookInput{}, err
	}
	categoryID, err := parseOptionalUUID(r.CategoryID)
	if err != nil {
		return booksvc.CreateBookInput{}, err
	}

	return booksvc.CreateBookInput{
		Title:         strings.TrimSpace(r.Title),
		Author:        strings.TrimSpace(r.Author),
		Description:   r.Description,
		ISBN:          r.ISBN,
		Price:         price,
		CoverImageURL: r.CoverImageURL,
		StockQuantity: r.StockQuantity,
		CategoryID:    categoryID,
	}, nil
}

func (r updateBookRequest) toUpdateInput() (booksvc.UpdateBookInput, error) {
	input := booksvc.UpdateBookInput{
		Title:         r.Title,
		Author:        r.Author,
		Description:   r.Description,
		ISBN:          r.ISBN,
		CoverImageURL: r.CoverImageURL,
		StockQuantity: r.StockQuantity,
	}

	if r.Price != nil {
		price, err := parsePrice(*r.Price)
		if err != nil {
			return booksvc.UpdateBookInput{}, err
		}
		input.Price = &price
	}

	categoryID, err := parseOptionalUUID(r.CategoryID)
	if err != nil {
		return booksvc.UpdateBookInput{}, err
	}
	input.CategoryID = categoryID

	return input, nil
}
