package response

import "errors"

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST   ErrCode = "REQUEST_FAILED"
	BAD_REQUEST      ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND        ErrCode = "NOT_FOUND"
	LOCKED           ErrCode = "LOCKED"
	CONFLICT         ErrCode = "CONFLICT"
	TOO_SOON         ErrCode = "TOO_SOON"
	WEEKEND          ErrCode = "WEEKEND"
	OUTSIDE_HOURS    ErrCode = "OUTSIDE_BUSINESS_HOURS"
	INVALID_ORDER    ErrCode = "INVALID_ORDER"
	UNAVAILABLE      ErrCode = "TUTOR_UNAVAILABLE"
	SLOT_TAKEN       ErrCode = "SLOT_TAKEN"
	DOUBLE_BOOKED    ErrCode = "DOUBLE_BOOKED"
	ALREADY_BOOKED   ErrCode = "ALREADY_BOOKED"
	ALREADY_TERMINAL ErrCode = "ALREADY_TERMINAL"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrConflict   = errors.New("conflict")
	// ErrAlreadyBooked is the commit-time variant of a slot conflict: the
	// optimistic pre-check passed but a concurrent writer won at the store.
	ErrAlreadyBooked = errors.New("slot already booked at commit time")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
