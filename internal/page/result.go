// Package page runs the load/action request model used by the household
// pages: a GET runs the page's load, a form POST runs one of its named
// actions, and both return a Result that is written to the response here.
package page

import (
	"encoding/json"
	"net/http"
)

// Kind discriminates Result.
type Kind int

const (
	KindOk Kind = iota
	KindRedirect
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindRedirect:
		return "redirect"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of a load or an action.
type Result struct {
	Kind     Kind
	Status   int
	Data     any
	Location string
	Message  string
}

// Ok carries data for rendering.
func Ok(data any) Result {
	return Result{Kind: KindOk, Status: http.StatusOK, Data: data}
}

// Redirect sends the client elsewhere with 303 See Other.
func Redirect(location string) Result {
	return Result{Kind: KindRedirect, Status: http.StatusSeeOther, Location: location}
}

// Fail reports an error to the client with the given status and message.
func Fail(status int, message string) Result {
	return Result{Kind: KindFailure, Status: status, Message: message}
}

// FailureBody is the JSON body written for a failed action.
type FailureBody struct {
	Message string `json:"message"`
}

// Write dispatches res onto w.
func Write(w http.ResponseWriter, r *http.Request, res Result) {
	switch res.Kind {
	case KindRedirect:
		http.Redirect(w, r, res.Location, res.Status)
	case KindFailure:
		writeJSON(w, res.Status, FailureBody{Message: res.Message})
	default:
		data := res.Data
		if data == nil {
			data = struct{}{}
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
