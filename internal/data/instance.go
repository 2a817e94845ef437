// internal/data/instance.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

// LoanStatus is the availability of a single book instance. The one-letter
// code is what gets stored; the label is what gets shown.
type LoanStatus string

const (
	StatusMaintenance LoanStatus = "m"
	StatusCheckedOut  LoanStatus = "c"
	StatusAvailable   LoanStatus = "a"
	StatusOnHold      LoanStatus = "h"
)

var loanStatusLabels = map[LoanStatus]string{
	StatusMaintenance: "Maintenance",
	StatusCheckedOut:  "Checked out",
	StatusAvailable:   "Available",
	StatusOnHold:      "On hold",
}

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{StatusMaintenance, StatusCheckedOut, StatusAvailable, StatusOnHold}

// Label returns the human readable name of s.
func (s LoanStatus) Label() string {
	return loanStatusLabels[s]
}

func (s LoanStatus) Valid() bool {
	_, ok := loanStatusLabels[s]
	return ok
}

// ParseLoanStatus accepts either the stored code ("c") or the label ("Checked out"),
// ignoring case.
func ParseLoanStatus(s string) (LoanStatus, error) {
	for _, status := range LoanStatuses {
		if strings.EqualFold(s, string(status)) || strings.EqualFold(s, status.Label()) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid loan status %q", s)
}

func (s LoanStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid loan status %q", string(s))
	}
	return []byte(s.Label()), nil
}

func (s *LoanStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseLoanStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// BookInstance is one physical, loanable copy of a book. Its id is a random
// UUID so copy identifiers cannot be guessed or enumerated.
type BookInstance struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookID     int64      `json:"book_id" db:"book_id"`
	BookTitle  string     `json:"book_title" db:"book_title"`
	DueBack    *Date      `json:"due_back" db:"due_back"`
	BorrowerID *int64     `json:"borrower_id" db:"borrower_id"`
	Status     LoanStatus `json:"status" db:"status"`
	Overdue    bool       `json:"is_overdue" db:"-"`
}

// NewBookInstance returns a fresh copy of the given book, in maintenance.
func NewBookInstance(bookID int64) *BookInstance {
	return &BookInstance{
		ID:     uuid.New(),
		BookID: bookID,
		Status: StatusMaintenance,
	}
}

// IsOverdue reports whether the instance has a due date strictly before today.
func (bi *BookInstance) IsOverdue(today Date) bool {
	return bi.DueBack != nil && bi.DueBack.Before(today)
}

// ShortID returns the first six characters of the id, enough to tell copies apart in listings.
func (bi *BookInstance) ShortID() string {
	return bi.ID.String()[:6]
}

func (bi BookInstance) String() string {
	return fmt.Sprintf("%s (%s)", bi.ID, bi.BookTitle)
}

// MarkOverdue sets the Overdue flag of every instance as of today.
func MarkOverdue(today Date, instances ...*BookInstance) {
	for _, bi := range instances {
		bi.Overdue = bi.IsOverdue(today)
	}
}

// BookInstanceModel provides database operations for the book_instances table.
type BookInstanceModel struct {
	DB *DB
}

// selectInstances is the base query shared by every read: instances joined to
// their book for the title.
func (m BookInstanceModel) selectInstances(extra ...any) *goqu.SelectDataset {
	cols := append(extra,
		goqu.I("bi.id"),
		goqu.I("bi.book_id"),
		goqu.I("b.title").As("book_title"),
		goqu.I("bi.due_back"),
		goqu.I("bi.borrower_id"),
		goqu.I("bi.status"),
	)
	return m.DB.from(goqu.T("book_instances").As("bi")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("bi.book_id")))).
		Select(cols...)
}

// Insert stores bi. A nil id is replaced with a new random one and an empty
// status defaults to maintenance.
func (m BookInstanceModel) Insert(ctx context.Context, bi *BookInstance) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	if bi.Status == "" {
		bi.Status = StatusMaintenance
	}
	if !bi.Status.Valid() {
		return fmt.Errorf("invalid loan status %q", string(bi.Status))
	}

	_, err := exec(ctx, m.DB, m.DB.insert("book_instances").Rows(goqu.Record{
		"id":          bi.ID.String(),
		"book_id":     bi.BookID,
		"due_back":    dateArg(bi.DueBack),
		"borrower_id": nullable(bi.BorrowerID),
		"status":      string(bi.Status),
	}))
	if isForeignKeyViolation(err) {
		return ErrRecordNotFound
	}
	return err
}

// Get retrieves a single instance by id.
func (m BookInstanceModel) Get(ctx context.Context, id uuid.UUID) (*BookInstance, error) {
	var bi BookInstance
	err := get(ctx, m.DB, &bi, m.selectInstances().Where(goqu.I("bi.id").Eq(id.String())))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &bi, nil
}

// GetAll returns every instance, ordered by due date.
func (m BookInstanceModel) GetAll(ctx context.Context) ([]*BookInstance, error) {
	instances := []*BookInstance{}
	err := selectAll(ctx, m.DB, &instances, m.selectInstances().Order(byDueBack()...))
	return instances, err
}

// GetForBook returns the instances of one book, ordered by due date.
func (m BookInstanceModel) GetForBook(ctx context.Context, bookID int64) ([]*BookInstance, error) {
	instances := []*BookInstance{}
	ds := m.selectInstances().Where(goqu.I("bi.book_id").Eq(bookID)).Order(byDueBack()...)
	err := selectAll(ctx, m.DB, &instances, ds)
	return instances, err
}

// GetBorrowedBy returns one page of the instances checked out to the given user,
// soonest due first. Instances the user holds in any other status are excluded.
func (m BookInstanceModel) GetBorrowedBy(ctx context.Context, userID int64, filters Filters) ([]*BookInstance, Metadata, error) {
	return m.page(ctx, filters,
		goqu.I("bi.borrower_id").Eq(userID),
		goqu.I("bi.status").Eq(string(StatusCheckedOut)),
	)
}

// GetCheckedOut returns one page of every checked-out instance, soonest due first.
func (m BookInstanceModel) GetCheckedOut(ctx context.Context, filters Filters) ([]*BookInstance, Metadata, error) {
	return m.page(ctx, filters, goqu.I("bi.status").Eq(string(StatusCheckedOut)))
}

func (m BookInstanceModel) page(ctx context.Context, filters Filters, where ...exp.Expression) ([]*BookInstance, Metadata, error) {
	ds := m.selectInstances(totalRecordsColumn).
		Where(where...).
		Order(byDueBack()...).
		Limit(filters.limit()).
		Offset(filters.offset())

	var rows []struct {
		TotalRecords int `db:"total_records"`
		BookInstance
	}
	if err := selectAll(ctx, m.DB, &rows, ds); err != nil {
		return nil, Metadata{}, err
	}

	totalRecords := 0
	instances := make([]*BookInstance, 0, len(rows))
	for i := range rows {
		totalRecords = rows[i].TotalRecords
		bi := rows[i].BookInstance
		instances = append(instances, &bi)
	}
	return instances, calculateMetadata(totalRecords, filters.Page, filters.PageSize), nil
}

func byDueBack() []exp.OrderedExpression {
	return []exp.OrderedExpression{goqu.I("bi.due_back").Asc(), goqu.I("bi.id").Asc()}
}

// Renew overwrites the due date of an instance. The status is left as it is.
func (m BookInstanceModel) Renew(ctx context.Context, id uuid.UUID, dueBack Date) error {
	return execAffected(ctx, m.DB, m.DB.update("book_instances").
		Set(goqu.Record{"due_back": dueBack.String()}).
		Where(goqu.C("id").Eq(id.String())))
}

// Update saves the availability fields of bi: status, due date and borrower.
func (m BookInstanceModel) Update(ctx context.Context, bi *BookInstance) error {
	if !bi.Status.Valid() {
		return fmt.Errorf("invalid loan status %q", string(bi.Status))
	}

	err := execAffected(ctx, m.DB, m.DB.update("book_instances").
		Set(goqu.Record{
			"status":      string(bi.Status),
			"due_back":    dateArg(bi.DueBack),
			"borrower_id": nullable(bi.BorrowerID),
		}).
		Where(goqu.C("id").Eq(bi.ID.String())))
	if isForeignKeyViolation(err) {
		return ErrConstraintViolation
	}
	return err
}

// Delete removes the instance with the given id.
func (m BookInstanceModel) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(ctx, m.DB, m.DB.delete("book_instances").Where(goqu.C("id").Eq(id.String())))
}
