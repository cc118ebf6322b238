package httpclient

// Callback receives the outcome of an async execution. Exactly one of its
// methods is called once per execution.
type Callback interface {
	// OnResponse receives the final response. The response is closed after
	// OnResponse returns, so the body must be consumed inside the call.
	OnResponse(resp *Response)
	// OnFailure receives any error that ended the execution.
	OnFailure(err error)
}

// CallbackFuncs adapts a pair of functions to the Callback interface.
// Nil functions are skipped.
type CallbackFuncs struct {
	Response func(resp *Response)
	Failure  func(err error)
}

var _ Callback = CallbackFuncs{}

// OnResponse calls f.Response.
func (f CallbackFuncs) OnResponse(resp *Response) {
	if f.Response != nil {
		f.Response(resp)
	}
}

// OnFailure calls f.Failure.
func (f CallbackFuncs) OnFailure(err error) {
	if f.Failure != nil {
		f.Failure(err)
	}
}
