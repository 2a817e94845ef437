package data

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		foreignKey bool
		unique     bool
	}{
		{"sqlite foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, true, false},
		{"sqlite on delete restrict", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintTrigger}, true, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, false, true},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, false, false},
		{"postgres foreign key", &pq.Error{Code: "23503"}, true, false},
		{"postgres restrict", &pq.Error{Code: "23001"}, true, false},
		{"postgres unique", &pq.Error{Code: "23505"}, false, true},
		{"wrapped", fmt.Errorf("deleting: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintTrigger}), true, false},
		{"other", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.foreignKey, isForeignKeyViolation(tt.err))
			assert.Equal(t, tt.unique, isUniqueViolation(tt.err))
		})
	}
}
