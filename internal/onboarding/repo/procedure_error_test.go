package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestProcedureErrorMessage(t *testing.T) {
	raised := &pq.Error{Severity: "ERROR", Code: "P0001", Message: "user already belongs to a household"}
	err := procedureError(fmt.Errorf("call procedure: %w", raised))

	assert.Equal(t, "user already belongs to a household", err.Error())
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))

	err = procedureError(errors.New("connection refused"))
	assert.Equal(t, "connection refused", err.Error())
}
