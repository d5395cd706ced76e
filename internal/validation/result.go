package validation

// Result is the outcome of validating one field value.
//
// Empty marks a blank value that should be shown neutral: no error and no
// success decoration. A blank optional field is Empty and Valid at once.
type Result struct {
	Valid   bool   `json:"valid"`
	Empty   bool   `json:"empty,omitempty"`
	Message string `json:"message,omitempty"`
}

func valid() Result {
	return Result{Valid: true}
}

func invalid(message string) Result {
	return Result{Message: message}
}

func blank(optional bool) Result {
	return Result{Valid: optional, Empty: true}
}
