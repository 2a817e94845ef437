// Package data provides the entity types and database access logic for the
// library catalog: genres, authors, books, book instances and users.
package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/aoideee/locallibrary/internal/validator"
)

// DefaultLanguage is stored when a book is saved without a language.
const DefaultLanguage = "English"

// Book represents a single title in the catalog. Physical copies of it are
// tracked separately as BookInstance records.
type Book struct {
	ID        int64    `json:"id" db:"id"`
	Title     string   `json:"title" db:"title" validate:"required,max=200"`
	AuthorID  *int64   `json:"author_id" db:"author_id"`
	Summary   string   `json:"summary" db:"summary" validate:"required,max=1000"`
	ISBN      string   `json:"isbn" db:"isbn" validate:"required"`
	Language  string   `json:"language" db:"language" validate:"max=50"`
	Published int      `json:"published" db:"published"`
	Genres    []*Genre `json:"genres" db:"-"`
}

func (b Book) String() string { return b.Title }

// ValidateBook records field errors for b in v.
func ValidateBook(v *validator.Validator, b *Book) {
	v.Struct(b)
	v.Check(b.ISBN == "" || validator.Matches(b.ISBN, validator.ISBNRX), "isbn", "must be exactly 13 digits")
	v.Check(genreIDsUnique(b.Genres), "genres", "must not contain duplicate values")
}

func genreIDsUnique(genres []*Genre) bool {
	seen := make(map[int64]bool, len(genres))
	for _, g := range genres {
		if seen[g.ID] {
			return false
		}
		seen[g.ID] = true
	}
	return true
}

// BookModel provides database operations for the books table and its genre links.
type BookModel struct {
	DB *DB
}

var bookColumns = []any{"id", "title", "author_id", "summary", "isbn", "language", "published"}

// Insert adds b together with its genre links in a single transaction and
// writes the generated id back into b. A duplicate ISBN yields ErrDuplicateISBN.
func (m BookModel) Insert(ctx context.Context, b *Book) error {
	if b.Language == "" {
		b.Language = DefaultLanguage
	}

	err := m.DB.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := m.DB.insertID(ctx, tx, m.DB.insert("books").Rows(goqu.Record{
			"title":     b.Title,
			"author_id": nullable(b.AuthorID),
			"summary":   b.Summary,
			"isbn":      b.ISBN,
			"language":  b.Language,
			"published": b.Published,
		}))
		if err != nil {
			return err
		}
		b.ID = id

		return m.linkGenres(ctx, tx, b.ID, b.Genres)
	})

	switch {
	case isUniqueViolation(err):
		return ErrDuplicateISBN
	case isForeignKeyViolation(err):
		return ErrRecordNotFound
	default:
		return err
	}
}

func (m BookModel) linkGenres(ctx context.Context, tx *sqlx.Tx, bookID int64, genres []*Genre) error {
	if len(genres) == 0 {
		return nil
	}

	rows := make([]any, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, goqu.Record{"book_id": bookID, "genre_id": g.ID})
	}
	_, err := exec(ctx, tx, m.DB.insert("book_genres").Rows(rows...))
	return err
}

// SetGenres replaces the genre links of a book.
func (m BookModel) SetGenres(ctx context.Context, bookID int64, genres []*Genre) error {
	err := m.DB.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, m.DB.delete("book_genres").Where(goqu.C("book_id").Eq(bookID))); err != nil {
			return err
		}
		return m.linkGenres(ctx, tx, bookID, genres)
	})
	if isForeignKeyViolation(err) {
		return ErrRecordNotFound
	}
	return err
}

// Get retrieves a single book, with its genres, by id.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	var b Book
	err := get(ctx, m.DB, &b, m.DB.from("books").Select(bookColumns...).Where(goqu.C("id").Eq(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if err := m.attachGenres(ctx, []*Book{&b}); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetAll returns one page of books with their genres.
func (m BookModel) GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error) {
	ds := m.DB.from("books").
		Select(append([]any{totalRecordsColumn}, bookColumns...)...).
		Order(filters.orderBy("books")...).
		Limit(filters.limit()).
		Offset(filters.offset())

	var rows []struct {
		TotalRecords int `db:"total_records"`
		Book
	}
	if err := selectAll(ctx, m.DB, &rows, ds); err != nil {
		return nil, Metadata{}, err
	}

	totalRecords := 0
	books := make([]*Book, 0, len(rows))
	for i := range rows {
		totalRecords = rows[i].TotalRecords
		b := rows[i].Book
		books = append(books, &b)
	}

	if err := m.attachGenres(ctx, books); err != nil {
		return nil, Metadata{}, err
	}
	return books, calculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

// GetByAuthor returns every book credited to the given author, ordered by title.
func (m BookModel) GetByAuthor(ctx context.Context, authorID int64) ([]*Book, error) {
	books := []*Book{}
	ds := m.DB.from("books").
		Select(bookColumns...).
		Where(goqu.C("author_id").Eq(authorID)).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc())

	if err := selectAll(ctx, m.DB, &books, ds); err != nil {
		return nil, err
	}
	if err := m.attachGenres(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (m BookModel) attachGenres(ctx context.Context, books []*Book) error {
	ids := make([]int64, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}

	byBook, err := GenreModel{DB: m.DB}.forBooks(ctx, m.DB, ids)
	if err != nil {
		return err
	}

	for _, b := range books {
		b.Genres = byBook[b.ID]
		if b.Genres == nil {
			b.Genres = []*Genre{}
		}
	}
	return nil
}

// Delete removes the book with the given id. It fails with ErrConstraintViolation,
// leaving the book untouched, while any book instance still references it.
func (m BookModel) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	err := execAffected(ctx, m.DB, m.DB.delete("books").Where(goqu.C("id").Eq(id)))
	if isForeignKeyViolation(err) {
		return ErrConstraintViolation
	}
	return err
}
