// internal/data/genre.go
package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// Genre is a category a book can be filed under. Names are not required to be unique.
type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required,max=200"`
}

func (g Genre) String() string { return g.Name }

// GenreModel provides database operations for the genres table.
type GenreModel struct {
	DB *DB
}

// Insert adds g and writes its generated id back into the struct.
func (m GenreModel) Insert(ctx context.Context, g *Genre) error {
	id, err := m.DB.insertID(ctx, m.DB, m.DB.insert("genres").Rows(goqu.Record{"name": g.Name}))
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// Get retrieves a single genre by id.
func (m GenreModel) Get(ctx context.Context, id int64) (*Genre, error) {
	var g Genre
	err := get(ctx, m.DB, &g, m.DB.from("genres").Select("id", "name").Where(goqu.C("id").Eq(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &g, nil
}

// GetAll returns every genre ordered by name.
func (m GenreModel) GetAll(ctx context.Context) ([]*Genre, error) {
	genres := []*Genre{}
	err := selectAll(ctx, m.DB, &genres,
		m.DB.from("genres").Select("id", "name").Order(goqu.C("name").Asc(), goqu.C("id").Asc()))
	return genres, err
}

// Delete removes the genre. Its book associations cascade away with it.
func (m GenreModel) Delete(ctx context.Context, id int64) error {
	return execAffected(ctx, m.DB, m.DB.delete("genres").Where(goqu.C("id").Eq(id)))
}

// bookGenre is one row of the book_genres join, carrying the genre's columns.
type bookGenre struct {
	BookID int64 `db:"book_id"`
	Genre
}

// forBooks loads the genres of every book in ids, keyed by book id.
func (m GenreModel) forBooks(ctx context.Context, q sqlx.QueryerContext, ids []int64) (map[int64][]*Genre, error) {
	byBook := make(map[int64][]*Genre, len(ids))
	if len(ids) == 0 {
		return byBook, nil
	}

	rows := []bookGenre{}
	ds := m.DB.from(goqu.T("book_genres").As("bg")).
		Join(goqu.T("genres").As("g"), goqu.On(goqu.I("g.id").Eq(goqu.I("bg.genre_id")))).
		Select(goqu.I("bg.book_id"), goqu.I("g.id"), goqu.I("g.name")).
		Where(goqu.I("bg.book_id").In(ids)).
		Order(goqu.I("g.name").Asc(), goqu.I("g.id").Asc())

	if err := selectAll(ctx, q, &rows, ds); err != nil {
		return nil, err
	}

	for i := range rows {
		g := rows[i].Genre
		byBook[rows[i].BookID] = append(byBook[rows[i].BookID], &g)
	}
	return byBook, nil
}
