// internal/data/summary.go
package data

import (
	"context"

	"github.com/doug-martin/goqu/v9"
)

// Summary holds the catalog-wide counts shown on the landing page.
type Summary struct {
	NumBooks              int            `json:"num_books"`
	NumInstances          int            `json:"num_instances"`
	NumInstancesAvailable int            `json:"num_instances_available"`
	NumAuthors            int            `json:"num_authors"`
	GenreCounts           map[string]int `json:"genre_counts"`
}

// SummaryModel runs the read-only reporting queries behind Summary.
type SummaryModel struct {
	DB *DB
}

// Get computes the summary as of now. A book counts once for every genre it is
// filed under, so the genre counts may add up to more than NumBooks.
func (m SummaryModel) Get(ctx context.Context) (*Summary, error) {
	s := &Summary{GenreCounts: map[string]int{}}

	counts := []struct {
		dest *int
		ds   *goqu.SelectDataset
	}{
		{&s.NumBooks, m.DB.from("books")},
		{&s.NumInstances, m.DB.from("book_instances")},
		{&s.NumInstancesAvailable, m.DB.from("book_instances").Where(goqu.C("status").Eq(string(StatusAvailable)))},
		{&s.NumAuthors, m.DB.from("authors")},
	}
	for _, c := range counts {
		if err := get(ctx, m.DB, c.dest, c.ds.Select(goqu.COUNT("*"))); err != nil {
			return nil, err
		}
	}

	// Genres sharing a name report the same count: the number of distinct books
	// filed under any genre with that name.
	var rows []struct {
		Name  string `db:"name"`
		Count int    `db:"num_books"`
	}
	ds := m.DB.from(goqu.T("genres").As("g")).
		LeftJoin(goqu.T("book_genres").As("bg"), goqu.On(goqu.I("bg.genre_id").Eq(goqu.I("g.id")))).
		Select(goqu.I("g.name"), goqu.COUNT(goqu.DISTINCT(goqu.I("bg.book_id"))).As("num_books")).
		GroupBy(goqu.I("g.name"))
	if err := selectAll(ctx, m.DB, &rows, ds); err != nil {
		return nil, err
	}

	for _, row := range rows {
		s.GenreCounts[row.Name] = row.Count
	}
	return s, nil
}
