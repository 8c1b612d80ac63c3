package v1

// Command names understood by the server.
const (
	CommandGetCurrentTime = "get_current_time"
	CommandConvertTime    = "convert_time"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope written for every input line. Exactly one of Result
// and Error is set.
type Response struct {
	Status string     `json:"status"`
	Result any        `json:"result,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

func Success(result any) Response {
	return Response{Status: StatusSuccess, Result: result}
}

func Failure(message string) Response {
	return Response{Status: StatusError, Error: &ErrorBody{Message: message}}
}

// ZonedTime is a datetime resolved against a named timezone.
type ZonedTime struct {
	Timezone string `json:"timezone"`
	Datetime string `json:"datetime"`
	IsDST    bool   `json:"is_dst"`
}

// ConversionResult is the result of convert_time.
type ConversionResult struct {
	Source         ZonedTime `json:"source"`
	Target         ZonedTime `json:"target"`
	TimeDifference string    `json:"time_difference"`
}
