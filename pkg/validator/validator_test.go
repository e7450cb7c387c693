package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardForm struct {
	Number string `validate:"required,numeric,min=13,max=19"`
	Expiry string `validate:"required,cardexpiry"`
	CVC    string `validate:"required,numeric,len=3"`
}

func TestValidate_Valid(t *testing.T) {
	form := cardForm{Number: "4242424242424242", Expiry: "04/27", CVC: "123"}
	assert.NoError(t, Validate(form))
}

func TestValidate_MissingFields(t *testing.T) {
	err := Validate(cardForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["Number"])
	assert.Equal(t, "is required", fields["Expiry"])
	assert.Equal(t, "is required", fields["CVC"])
}

func TestValidate_CardExpiry(t *testing.T) {
	tests := []struct {
		expiry string
		valid  bool
	}{
		{"04/27", true},
		{"12/99", true},
		{"01/00", true},
		{"13/27", false},
		{"00/27", false},
		{"4/27", false},
		{"04-27", false},
		{"04/2027", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.expiry, func(t *testing.T) {
			form := cardForm{Number: "4242424242424242", Expiry: tt.expiry, CVC: "123"}
			err := Validate(form)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				var valErr *ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, "must be a valid MM/YY expiry", valErr.Fields()["Expiry"])
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(cardForm{Number: "4242424242424242", Expiry: "99/99", CVC: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Expiry' must be a valid MM/YY expiry")
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"Number":"4242424242424242","Expiry":"04/27","CVC":"123"}`))
	var form cardForm
	assert.NoError(t, DecodeAndValidate(r, &form))
	assert.Equal(t, "04/27", form.Expiry)
}

func TestDecodeAndValidate_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{not json`))
	var form cardForm
	err := DecodeAndValidate(r, &form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
