package response

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithCode_JSON(t *testing.T) {
	data, err := json.Marshal(ErrorWithCode("insufficient credits", CodeInsufficientCredits))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Error","error":"insufficient credits","code":"INSUFFICIENT_CREDITS"}`, string(data))

	data, err = json.Marshal(Error("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Error","error":"boom"}`, string(data))
}

func TestOKWithData(t *testing.T) {
	data, err := json.Marshal(OKWithData(map[string]int{"credits": 3}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","data":{"credits":3}}`, string(data))
}

func TestValidationError(t *testing.T) {
	type request struct {
		Username string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		Password string `validate:"min=6"`
		Limit    int    `validate:"max=10"`
	}
	err := validator.New().Struct(request{Email: "nope", Password: "123", Limit: 11})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, CodeValidation, resp.Code)
	assert.Equal(t,
		"field Username is a required field, field Email must be a valid email, field Password must be at least 6, field Limit must be at most 10",
		resp.Error)
}
