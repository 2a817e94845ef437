package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/validator"
)

func TestBookInsertAndGet(t *testing.T) {
	m := newTestModels(t)
	ctx := context.Background()

	author := givenAuthor(t, m, "Ursula", "Le Guin")
	fantasy := givenGenre(t, m, "Fantasy")
	scifi := givenGenre(t, m, "Science Fiction")

	b := givenBook(t, m, "The Dispossessed", author, scifi, fantasy)
	assert.NotZero(t, b.ID)
	assert.Equal(t, DefaultLanguage, b.Language)

	got, err := m.Books.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Dispossessed", got.Title)
	assert.Equal(t, "English", got.Language)
	require.NotNil(t, got.AuthorID)
	assert.Equal(t, author.ID, *got.AuthorID)
	require.Len(t, got.Genres, 2)
	assert.Equal(t, "Fantasy", got.Genres[0].Name)
	assert.Equal(t, "Science Fiction", got.Genres[1].Name)

	_, err = m.Books.Get(ctx, b.ID+100)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestBookDuplicateISBN(t *testing.T) {
	m := newTestModels(t)
	ctx := context.Background()

	first := &Book{Title: "First", Summary: "s", ISBN: "1234567890123", Published: 1999}
	require.NoError(t, m.Books.Insert(ctx, first))

	second := &Book{Title: "Second", Summary: "s", ISBN: "1234567890123", Published: 2000}
	err := m.Books.Insert(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	books, meta, err := m.Books.GetAll(ctx, Filters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, 1, meta.TotalRecords)
}

func TestBookDeleteRestrictedByInstances(t *testing.T) {
	m := newTestModels(t)
	ctx := context.Background()

	b := givenBook(t, m, "Kindred", nil)
	bi := givenInstance(t, m, b, StatusAvailable, nil, nil)

	err := m.Books.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	stillThere, err := m.Books.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kindred", stillThere.Title)

	inst, err := m.Instances.Get(ctx, bi.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, inst.Status)
	assert.Equal(t, b.ID, inst.BookID)

	require.NoError(t, m.Instances.Delete(ctx, bi.ID))
	require.NoError(t, m.Books.Delete(ctx, b.ID))

	_, err = m.Books.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.ErrorIs(t, m.Books.Delete(ctx, b.ID), ErrRecordNotFound)
}

func TestBookGetAllPaginatesAndSorts(t *testing.T) {
	m := newTestModels(t)
	ctx := context.Background()

	for _, title := range []string{"Cetaganda", "Barrayar", "Amends"} {
		givenBook(t, m, title, nil)
	}

	filters := Filters{Page: 1, PageSize: 2, Sort: "title", SortSafeList: []string{"title", "-title"}}
	books, meta, err := m.Books.GetAll(ctx, filters)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Amends", books[0].Title)
	assert.Equal(t, "Barrayar", books[1].Title)
	assert.Equal(t, Metadata{CurrentPage: 1, PageSize: 2, FirstPage: 1, LastPage: 2, TotalRecords: 3}, meta)

	filters.Page = 2
	books, _, err = m.Books.GetAll(ctx, filters)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Cetaganda", books[0].Title)
	assert.NotNil(t, books[0].Genres)

	filters = Filters{Page: 1, PageSize: 5, Sort: "-title", SortSafeList: []string{"title", "-title"}}
	books, _, err = m.Books.GetAll(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, "Cetaganda", books[0].Title)
}

func TestBookSetGenresAndGetByAuthor(t *testing.T) {
	m := newTestModels(t)
	ctx := context.Background()

	author := givenAuthor(t, m, "Octavia", "Butler")
	horror := givenGenre(t, m, "Horror")
	scifi := givenGenre(t, m, "Science Fiction")
	b := givenBook(t, m, "Fledgling", author, horror)
	givenBook(t, m, "Dawn", author)
	givenBook(t, m, "Unrelated", nil)

	require.NoError(t, m.Books.SetGenres(ctx, b.ID, []*Genre{scifi}))

	books, err := m.Books.GetByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dawn", books[0].Title)
	assert.Empty(t, books[0].Genres)
	assert.Equal(t, "Fledgling", books[1].Title)
	require.Len(t, books[1].Genres, 1)
	assert.Equal(t, "Science Fiction", books[1].Genres[0].Name)
}

func TestValidateBook(t *testing.T) {
	fantasy := &Genre{ID: 1, Name: "Fantasy"}

	v := validator.New()
	ValidateBook(v, &Book{Title: "A", Summary: "S", ISBN: "9780441013593", Genres: []*Genre{fantasy}})
	assert.True(t, v.Valid(), v.Errors)

	v = validator.New()
	ValidateBook(v, &Book{ISBN: "978-0441013593", Genres: []*Genre{fantasy, fantasy}})
	assert.Equal(t, "must be provided", v.Errors["title"])
	assert.Equal(t, "must be provided", v.Errors["summary"])
	assert.Equal(t, "must be exactly 13 digits", v.Errors["isbn"])
	assert.Equal(t, "must not contain duplicate values", v.Errors["genres"])
}
