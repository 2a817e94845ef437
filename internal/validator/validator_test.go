package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddErrorKeepsFirstMessage(t *testing.T) {
	v := New()
	assert.True(t, v.Valid())

	v.AddError("title", "must be provided")
	v.AddError("title", "must not be more than 200 characters long")
	v.Check(true, "isbn", "never recorded")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"title": "must be provided"}, v.Errors)
}

func TestStructUsesJSONFieldNames(t *testing.T) {
	type input struct {
		FirstName string `json:"first_name" validate:"required,max=5"`
		LastName  string `json:"last_name,omitempty" validate:"required"`
		Ignored   string `json:"-"`
	}

	v := New()
	v.Struct(input{FirstName: "Alexandra"})

	assert.Equal(t, map[string]string{
		"first_name": "must not be more than 5 characters long",
		"last_name":  "must be provided",
	}, v.Errors)

	v = New()
	v.Struct(input{FirstName: "Ann", LastName: "Leckie"})
	assert.True(t, v.Valid())
}

func TestHelpers(t *testing.T) {
	assert.True(t, In("title", "title", "-title"))
	assert.False(t, In("summary", "title", "-title"))

	assert.True(t, Matches("9780316246620", ISBNRX))
	assert.False(t, Matches("978-0316246620", ISBNRX))
	assert.False(t, Matches("978031624662", ISBNRX))

	assert.True(t, Unique([]string{"a", "b"}))
	assert.False(t, Unique([]string{"a", "b", "a"}))
}
