package domain

// Contact form field names. These are the keys used in form posts, in
// FormState.Errors and in the relay payload (except name, sent as from_name).
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldPhone   = "phone"
	FieldService = "service"
	FieldMessage = "message"
)

// ContactFields lists the form fields in render order.
var ContactFields = []string{FieldName, FieldEmail, FieldPhone, FieldService, FieldMessage}

// ServiceOptions are the choices offered in the contact form's service select.
var ServiceOptions = []string{
	"Industrial Cranes",
	"Industrial Sheds",
	"Maintenance Services",
	"Custom Solutions",
	"Other",
}

// IsContactField reports whether name is one of the five form fields.
func IsContactField(name string) bool {
	for _, f := range ContactFields {
		if f == name {
			return true
		}
	}
	return false
}

// ContactForm holds the raw values typed into the contact form.
type ContactForm struct {
	Name    string `json:"name" form:"name" validate:"filled"`
	Email   string `json:"email" form:"email" validate:"filled,looseemail"`
	Phone   string `json:"phone" form:"phone" validate:"filled,phone10"`
	Service string `json:"service" form:"service" validate:"required"`
	Message string `json:"message" form:"message" validate:"filled"`
}

// Get returns the value of the named field, or "" for unknown names.
func (f ContactForm) Get(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldService:
		return f.Service
	case FieldMessage:
		return f.Message
	}
	return ""
}

// Set assigns value to the named field. It returns false for unknown names.
func (f *ContactForm) Set(field, value string) bool {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldService:
		f.Service = value
	case FieldMessage:
		f.Message = value
	default:
		return false
	}
	return true
}

// Notice kinds shown as a blocking alert after a failed submission.
const (
	NoticeRejected  = "rejected"
	NoticeTransport = "transport"
)

// Notice is a blocking failure notification waiting to be shown.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// FormState is one visitor's contact form: field values, per-field errors
// and the submit lifecycle flags. IsSubmitting and IsSubmitted are never
// both true.
type FormState struct {
	Form         ContactForm       `json:"form"`
	Errors       map[string]string `json:"errors,omitempty"`
	IsSubmitting bool              `json:"is_submitting"`
	IsSubmitted  bool              `json:"is_submitted"`
	Notice       *Notice           `json:"notice,omitempty"`
}

// NewFormState returns an empty, editable form.
func NewFormState() *FormState {
	return &FormState{Errors: make(map[string]string)}
}

// SetField updates a field value and drops any error recorded for it.
// No validation happens here; errors come back only on the next submit.
func (s *FormState) SetField(field, value string) bool {
	if !s.Form.Set(field, value) {
		return false
	}
	delete(s.Errors, field)
	return true
}

// HasErrors reports whether any field error is recorded.
func (s *FormState) HasErrors() bool {
	return len(s.Errors) > 0
}

// Clone returns a deep copy of the state.
func (s *FormState) Clone() *FormState {
	c := *s
	c.Errors = make(map[string]string, len(s.Errors))
	for k, v := range s.Errors {
		c.Errors[k] = v
	}
	if s.Notice != nil {
		n := *s.Notice
		c.Notice = &n
	}
	return &c
}

// Submission is the immutable snapshot of a form taken when a request is
// dispatched to the relay.
type Submission struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
}

// Snapshot captures the current form values for dispatch.
func (f ContactForm) Snapshot() Submission {
	return Submission{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Service: f.Service,
		Message: f.Message,
	}
}
