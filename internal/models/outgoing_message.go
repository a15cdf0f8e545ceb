package models

// OutgoingMessage is a transient message payload handed to the dispatcher.
// From/FromName are filled in from the resolved credential, never by the
// caller.
type OutgoingMessage struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	From     string `json:"-"`
	FromName string `json:"-"`
}
