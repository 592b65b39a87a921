package page

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
)

const maxFormMemory = 1 << 20

var ErrInvalidForm = errors.New("invalid form data")

// Optional is a submitted form value that may be absent. A missing field and
// an empty string are the same thing.
type Optional struct {
	value string
	set   bool
}

// Some wraps v, normalizing "" to None.
func Some(v string) Optional {
	if v == "" {
		return Optional{}
	}
	return Optional{value: v, set: true}
}

func None() Optional { return Optional{} }

func (o Optional) Get() (string, bool) { return o.value, o.set }

func (o Optional) Present() bool { return o.set }

// Ptr returns nil when absent, for nullable columns.
func (o Optional) Ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func (o Optional) String() string {
	if !o.set {
		return "<none>"
	}
	return o.value
}

// FormFunc reads the body of an action request on demand.
type FormFunc func() (Form, error)

// Values returns a FormFunc over already parsed values.
func Values(values url.Values) FormFunc {
	return func() (Form, error) { return NewForm(values), nil }
}

// InvalidForm is the failure for a body that cannot be parsed.
func InvalidForm() Result {
	return Fail(http.StatusBadRequest, "Invalid form data")
}

// Form holds the submitted body fields of an action request.
type Form struct {
	values url.Values
}

// NewForm builds a Form from already parsed values.
func NewForm(values url.Values) Form {
	return Form{values: values}
}

// ParseForm reads an urlencoded or multipart request body.
func ParseForm(r *http.Request) (Form, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return Form{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	return Form{values: r.PostForm}, nil
}

// Field returns the named field, normalized.
func (f Form) Field(name string) Optional {
	return Some(f.values.Get(name))
}

// Required returns the named fields in order and reports whether all of
// them are present.
func (f Form) Required(names ...string) ([]string, bool) {
	out := make([]string, len(names))
	ok := true
	for i, n := range names {
		v, present := f.Field(n).Get()
		out[i] = v
		ok = ok && present
	}
	return out, ok
}
