package serverutils

import "errors"

var (
	ErrNotFound    = errors.New("the requested resource was not found")
	ErrStoreClosed = errors.New("the store has been closed")
	ErrInternal    = errors.New("something went wrong on our end, please try again later")
	ErrBadRequest  = errors.New("the request could not be processed due to invalid input")
)
