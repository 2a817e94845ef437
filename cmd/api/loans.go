// cmd/api/loans.go
// Handlers for borrowed copies: the signed-in user's own loans, the staff view
// of every loan, and the renewal form.
package main

import (
	"errors"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

// listMyBorrowedHandler handles GET /v1/mybooks.
// Only copies that are checked out to the caller are listed, soonest due first.
func (app *applicationDependencies) listMyBorrowedHandler(w http.ResponseWriter, r *http.Request) {
	identity := app.contextGetIdentity(r)

	v := validator.New()
	filters := app.readFilters(r.URL.Query(), loansPageSize, nil, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, nil)
		return
	}

	instances, metadata, err := app.models.Instances.GetBorrowedBy(r.Context(), identity.UserID, filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	data.MarkOverdue(app.today(), instances...)

	err = app.writeJSON(w, http.StatusOK, envelope{"book_instances": instances, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listCheckedOutHandler handles GET /v1/checkedout.
func (app *applicationDependencies) listCheckedOutHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	filters := app.readFilters(r.URL.Query(), loansPageSize, nil, v)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, nil)
		return
	}

	instances, metadata, err := app.models.Instances.GetCheckedOut(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	data.MarkOverdue(app.today(), instances...)

	err = app.writeJSON(w, http.StatusOK, envelope{"book_instances": instances, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showRenewalHandler handles GET /v1/instances/:id/renew.
// It returns the copy together with the due date a renewal would propose.
func (app *applicationDependencies) showRenewalHandler(w http.ResponseWriter, r *http.Request) {
	instance, ok := app.instanceFromRequest(w, r)
	if !ok {
		return
	}

	proposed := data.DateOf(validator.DefaultRenewalDate(app.clock()))

	err := app.writeJSON(w, http.StatusOK, envelope{
		"book_instance": instance,
		"renewal_date":  proposed,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// renewBookInstanceHandler handles POST /v1/instances/:id/renew.
// A valid date becomes the copy's new due date and the client is sent on to
// the checked-out listing. The loan status is left alone.
func (app *applicationDependencies) renewBookInstanceHandler(w http.ResponseWriter, r *http.Request) {
	instance, ok := app.instanceFromRequest(w, r)
	if !ok {
		return
	}

	// The date is read as a string so a malformed value is reported like any
	// other field error, with the submitted input echoed back.
	var input struct {
		RenewalDate string `json:"renewal_date"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	renewal, err := data.ParseDate(input.RenewalDate)
	switch {
	case input.RenewalDate == "":
		v.AddError("renewal_date", "must be provided")
	case err != nil:
		v.AddError("renewal_date", "enter a valid date (YYYY-MM-DD)")
	default:
		if _, err := validator.ValidateRenewalDate(renewal.Time, app.clock()); err != nil {
			v.AddError("renewal_date", err.Error())
		}
	}
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors, input)
		return
	}

	err = app.models.Instances.Renew(r.Context(), instance.ID, renewal)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	instance, err = app.models.Instances.Get(r.Context(), instance.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	data.MarkOverdue(app.today(), instance)

	headers := make(http.Header)
	headers.Set("Location", "/v1/checkedout")

	err = app.writeJSON(w, http.StatusSeeOther, envelope{"book_instance": instance}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// instanceFromRequest loads the copy named by the :id parameter. A malformed
// id is treated the same as an unknown one.
func (app *applicationDependencies) instanceFromRequest(w http.ResponseWriter, r *http.Request) (*data.BookInstance, bool) {
	id, err := app.readUUIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	instance, err := app.models.Instances.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return nil, false
	}
	data.MarkOverdue(app.today(), instance)
	return instance, true
}
