package statusapi

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsuccessful is returned when the Status API answers 2xx but reports
// success=false in the envelope.
var ErrUnsuccessful = errors.New("status api reported failure")

// Record is one global state entry as exchanged with the Status API.
// Every field is optional on the wire.
type Record struct {
	ID             *string  `json:"_id,omitempty"`
	State          string   `json:"state,omitempty"`
	Reason         *string  `json:"reason,omitempty"`
	CreatedAt      *string  `json:"createdAt,omitempty"`
	UpdatedAt      *string  `json:"updatedAt,omitempty"`
	Timeout        *float64 `json:"timeout,omitempty"`
	TimeoutStop    *string  `json:"timeoutStop,omitempty"`
	AssociatedUser *string  `json:"associatedUser,omitempty"`
	CreatedUser    *string  `json:"createdUser,omitempty"`
}

// UnmarshalJSON accepts "id" as an alias for "_id".
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		AltID *string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if r.ID == nil && aux.AltID != nil {
		r.ID = aux.AltID
	}
	return nil
}

// Response is the Status API envelope.
type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    []Record `json:"data,omitempty"`
}

// Error is a non-2xx answer from the Status API.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// errorBody is the failure payload shape, {"data":{"message":"..."}}.
type errorBody struct {
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Data.Message != "":
		return b.Data.Message
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// Ptr returns a pointer to v, for building Records.
func Ptr[T any](v T) *T {
	return &v
}
