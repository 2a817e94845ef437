package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/auth"
	"github.com/aoideee/locallibrary/internal/data"
)

func TestRenewRequiresManageStatus(t *testing.T) {
	app := newTestApplication(t)
	book := givenBook(t, app, "The Dispossessed", nil)
	loan := givenLoan(t, app, book, data.StatusCheckedOut, 3, nil)
	_, readerToken := givenUser(t, app, auth.PermViewAll)

	path := "/v1/instances/" + loan.ID.String() + "/renew"
	body := map[string]string{"renewal_date": dayString(10)}

	t.Run("anonymous is sent to login", func(t *testing.T) {
		res := do(t, app, http.MethodPost, path, "", body)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
		assert.Equal(t, loginPath, res.Header().Get("Location"))
		assert.Equal(t, loginPath, res.body["login_url"])

		res = do(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("signed in without permission is forbidden", func(t *testing.T) {
		res := do(t, app, http.MethodPost, path, readerToken, body)
		assert.Equal(t, http.StatusForbidden, res.Code)

		res = do(t, app, http.MethodGet, path, readerToken, nil)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	got, err := app.models.Instances.Get(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, dayString(3), got.DueBack.String(), "due date must be untouched")
}

func TestRenewProposesDefaultDate(t *testing.T) {
	app := newTestApplication(t)
	book := givenBook(t, app, "Kindred", nil)
	loan := givenLoan(t, app, book, data.StatusCheckedOut, -2, nil)
	_, token := givenUser(t, app, auth.PermManageStatus)

	res := do(t, app, http.MethodGet, "/v1/instances/"+loan.ID.String()+"/renew", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, dayString(21), res.body["renewal_date"])

	instance := res.body["book_instance"].(map[string]any)
	assert.Equal(t, loan.ID.String(), instance["id"])
	assert.Equal(t, true, instance["is_overdue"])
}

func TestRenewUpdatesDueDateOnly(t *testing.T) {
	app := newTestApplication(t)
	book := givenBook(t, app, "Beloved", nil)
	borrower, _ := givenUser(t, app)
	loan := givenLoan(t, app, book, data.StatusCheckedOut, 3, borrower)
	_, token := givenUser(t, app, auth.PermManageStatus)

	res := do(t, app, http.MethodPost, "/v1/instances/"+loan.ID.String()+"/renew", token,
		map[string]string{"renewal_date": dayString(10)})
	require.Equal(t, http.StatusSeeOther, res.Code, res.Body.String())
	assert.Equal(t, "/v1/checkedout", res.Header().Get("Location"))

	instance := res.body["book_instance"].(map[string]any)
	assert.Equal(t, dayString(10), instance["due_back"])

	got, err := app.models.Instances.Get(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, dayString(10), got.DueBack.String())
	assert.Equal(t, data.StatusCheckedOut, got.Status)
	require.NotNil(t, got.BorrowerID)
	assert.Equal(t, borrower.ID, *got.BorrowerID)
}

func TestRenewDateWindow(t *testing.T) {
	app := newTestApplication(t)
	book := givenBook(t, app, "Solaris", nil)
	_, token := givenUser(t, app, auth.PermManageStatus)

	tests := []struct {
		name    string
		offset  int
		status  int
		message string
	}{
		{"yesterday", -1, http.StatusUnprocessableEntity, "invalid date - renewal in past"},
		{"today", 0, http.StatusSeeOther, ""},
		{"four weeks", 28, http.StatusSeeOther, ""},
		{"four weeks and a day", 29, http.StatusUnprocessableEntity, "invalid date - renewal more than 4 weeks ahead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := givenLoan(t, app, book, data.StatusCheckedOut, 5, nil)
			date := dayString(tt.offset)

			res := do(t, app, http.MethodPost, "/v1/instances/"+loan.ID.String()+"/renew", token,
				map[string]string{"renewal_date": date})
			require.Equal(t, tt.status, res.Code, res.Body.String())

			got, err := app.models.Instances.Get(context.Background(), loan.ID)
			require.NoError(t, err)

			if tt.status != http.StatusUnprocessableEntity {
				assert.Equal(t, date, got.DueBack.String())
				return
			}

			errs := res.body["error"].(map[string]any)
			assert.Equal(t, tt.message, errs["renewal_date"])
			input := res.body["input"].(map[string]any)
			assert.Equal(t, date, input["renewal_date"])
			assert.Equal(t, dayString(5), got.DueBack.String())
		})
	}

	t.Run("missing date", func(t *testing.T) {
		loan := givenLoan(t, app, book, data.StatusCheckedOut, 5, nil)
		res := do(t, app, http.MethodPost, "/v1/instances/"+loan.ID.String()+"/renew", token, map[string]string{})
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)
		assert.Contains(t, res.body["error"], "renewal_date")
	})

	t.Run("malformed date", func(t *testing.T) {
		loan := givenLoan(t, app, book, data.StatusCheckedOut, 5, nil)
		res := do(t, app, http.MethodPost, "/v1/instances/"+loan.ID.String()+"/renew", token,
			map[string]string{"renewal_date": "15/10/2026"})
		require.Equal(t, http.StatusUnprocessableEntity, res.Code)

		errs := res.body["error"].(map[string]any)
		assert.Equal(t, "enter a valid date (YYYY-MM-DD)", errs["renewal_date"])
		input := res.body["input"].(map[string]any)
		assert.Equal(t, "15/10/2026", input["renewal_date"])

		got, err := app.models.Instances.Get(context.Background(), loan.ID)
		require.NoError(t, err)
		assert.Equal(t, dayString(5), got.DueBack.String())
	})

	t.Run("date of the wrong type", func(t *testing.T) {
		loan := givenLoan(t, app, book, data.StatusCheckedOut, 5, nil)
		res := do(t, app, http.MethodPost, "/v1/instances/"+loan.ID.String()+"/renew", token,
			map[string]int{"renewal_date": 20261015})
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestRenewUnknownInstance(t *testing.T) {
	app := newTestApplication(t)
	_, token := givenUser(t, app, auth.PermManageStatus)
	body := map[string]string{"renewal_date": dayString(1)}

	res := do(t, app, http.MethodPost, "/v1/instances/"+uuid.NewString()+"/renew", token, body)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, app, http.MethodPost, "/v1/instances/not-a-uuid/renew", token, body)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestListMyBorrowed(t *testing.T) {
	app := newTestApplication(t)
	reader, readerToken := givenUser(t, app)
	other, _ := givenUser(t, app)
	book := givenBook(t, app, "Middlemarch", nil)

	late := givenLoan(t, app, book, data.StatusCheckedOut, 9, reader)
	overdue := givenLoan(t, app, book, data.StatusCheckedOut, -1, reader)
	givenLoan(t, app, book, data.StatusOnHold, 1, reader)
	givenLoan(t, app, book, data.StatusCheckedOut, 2, other)

	res := do(t, app, http.MethodGet, "/v1/mybooks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, loginPath, res.Header().Get("Location"))

	res = do(t, app, http.MethodGet, "/v1/mybooks", readerToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	items := listOf(t, res, "book_instances")
	require.Len(t, items, 2)
	assert.Equal(t, overdue.ID.String(), items[0]["id"])
	assert.Equal(t, true, items[0]["is_overdue"])
	assert.Equal(t, "Checked out", items[0]["status"])
	assert.Equal(t, late.ID.String(), items[1]["id"])
	assert.Equal(t, false, items[1]["is_overdue"])

	metadata := res.body["metadata"].(map[string]any)
	assert.EqualValues(t, 2, metadata["total_records"])
	assert.EqualValues(t, loansPageSize, metadata["page_size"])
}

func TestListCheckedOut(t *testing.T) {
	app := newTestApplication(t)
	reader, readerToken := givenUser(t, app)
	_, staffToken := givenUser(t, app, auth.PermViewAll)
	book := givenBook(t, app, "Emma", nil)

	givenLoan(t, app, book, data.StatusCheckedOut, 4, reader)
	givenLoan(t, app, book, data.StatusCheckedOut, 1, nil)
	givenLoan(t, app, book, data.StatusAvailable, 0, nil)

	res := do(t, app, http.MethodGet, "/v1/checkedout", readerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = do(t, app, http.MethodGet, "/v1/checkedout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = do(t, app, http.MethodGet, "/v1/checkedout", staffToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	items := listOf(t, res, "book_instances")
	require.Len(t, items, 2)
	assert.Equal(t, dayString(1), items[0]["due_back"])
	assert.Equal(t, dayString(4), items[1]["due_back"])
	assert.Equal(t, "Emma", items[0]["book_title"])
}
