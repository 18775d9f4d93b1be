package api

// Result is the { success, message, data } shape handed to presentation code,
// which branches on Success and shows Message.
type Result[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
	Err     error  `json:"-"`
}

func ResultOf[T any](data T, err error, successMessage string) Result[T] {
	if err != nil {
		return Result[T]{Success: false, Message: MessageOf(err), Err: err}
	}
	return Result[T]{Success: true, Message: successMessage, Data: data}
}
