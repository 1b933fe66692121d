package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormState_SetFieldClearsOnlyThatError(t *testing.T) {
	s := NewFormState()
	s.Errors[FieldName] = "Name is required"
	s.Errors[FieldEmail] = "Email is invalid"

	ok := s.SetField(FieldName, "Raj")

	assert.True(t, ok)
	assert.Equal(t, "Raj", s.Form.Name)
	assert.NotContains(t, s.Errors, FieldName)
	assert.Equal(t, "Email is invalid", s.Errors[FieldEmail])
}

func TestFormState_SetFieldUnknown(t *testing.T) {
	s := NewFormState()
	s.Errors[FieldName] = "Name is required"

	assert.False(t, s.SetField("subject", "hello"))
	assert.Len(t, s.Errors, 1)
}

func TestFormState_SetFieldWithNilErrors(t *testing.T) {
	s := &FormState{}
	assert.True(t, s.SetField(FieldPhone, "98450 12345"))
	assert.Equal(t, "98450 12345", s.Form.Phone)
}

func TestFormState_CloneIsDeep(t *testing.T) {
	s := NewFormState()
	s.Errors[FieldService] = "Please select a service"
	s.Notice = &Notice{Kind: NoticeTransport, Message: "Network error. Please try again."}

	c := s.Clone()
	c.Errors[FieldService] = "changed"
	c.Notice.Message = "changed"

	assert.Equal(t, "Please select a service", s.Errors[FieldService])
	assert.Equal(t, "Network error. Please try again.", s.Notice.Message)
}

func TestContactForm_GetSetRoundTrip(t *testing.T) {
	var f ContactForm
	for _, field := range ContactFields {
		assert.True(t, f.Set(field, field+"-value"))
	}
	for _, field := range ContactFields {
		assert.Equal(t, field+"-value", f.Get(field))
	}

	snap := f.Snapshot()
	assert.Equal(t, "name-value", snap.Name)
	assert.Equal(t, "message-value", snap.Message)
}

func TestErrorCode_ValidationError(t *testing.T) {
	err := NewValidationError("contact.Submit", FieldName, "Name is required")
	assert.Equal(t, EINVALID, ErrorCode(err))
}
