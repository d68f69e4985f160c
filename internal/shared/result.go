package shared

// Result is the uniform outcome of a call to a remote collaborator. Failures
// are captured here instead of propagating, so callers can keep local state
// and show Error to the user.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok wraps data in a successful Result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps err in a failed Result. A nil err still produces a failure.
func Fail[T any](err error) Result[T] {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return Result[T]{Error: msg}
}

// From converts a (value, error) pair into a Result.
func From[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(data)
}
