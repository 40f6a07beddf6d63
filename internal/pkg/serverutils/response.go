package serverutils

type WebResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type WebError struct {
	Success bool          `json:"success"`
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) WebResponse[T] {
	return WebResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) WebError {
	return WebError{
		Success: false,
		Code:    code,
		Message: message,
	}
}

func ValidationErrorResponse(details []ErrorDetail) WebError {
	return WebError{
		Success: false,
		Code:    400,
		Message: "validation failed",
		Errors:  details,
	}
}
