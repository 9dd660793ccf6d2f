package dmp

import (
	"encoding/json"
	"fmt"
	"io"
)

// The DMP API returns errors in the following format:
//
//	{
//	  "error": "unknown_datapoint",
//	  "message": "datapoint 42 does not exist"
//	}
type Error struct {
	HTTPCode  int    `json:"-"`
	ErrorCode string `json:"error"`
	Message   string `json:"message"`
}

func (e *Error) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("dmp: unexpected status %d", e.HTTPCode)
	}
	return fmt.Sprintf("dmp: %d %s: %s", e.HTTPCode, e.ErrorCode, e.Message)
}

// AuthenticationError is returned when the login endpoint rejects the
// credentials, cannot be reached, or answers without an X-Auth-Token header.
type AuthenticationError struct {
	HTTPCode     int
	MissingToken bool
	Err          error
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("dmp: authentication failed: %v", e.Err)
	case e.MissingToken:
		return fmt.Sprintf("dmp: authentication failed: status %d without X-Auth-Token header", e.HTTPCode)
	default:
		return fmt.Sprintf("dmp: authentication failed: status %d", e.HTTPCode)
	}
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// tries to parse the API error from the reader, taken from the HTTP
// response body
func parseErrorResponse(httpCode int, body io.Reader) error {
	var apiErr Error
	if err := json.NewDecoder(body).Decode(&apiErr); err != nil {
		return &Error{HTTPCode: httpCode}
	}
	apiErr.HTTPCode = httpCode
	return &apiErr
}
