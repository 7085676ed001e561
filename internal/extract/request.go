package extract

import "context"

// Request names the source document, the credentials to call the service
// with and the extraction policy.
type Request struct {
	FilePath    string
	Credentials Credentials
	Options     Options
}

// BuildRequest assembles the request for one upload. The file is not
// checked here; the invoker reports unreadable input.
func BuildRequest(filePath string, creds Credentials) Request {
	return Request{
		FilePath:    filePath,
		Credentials: creds,
		Options:     DefaultOptions(),
	}
}

// Invoker runs a single extraction job against the remote service.
// Implementations return *Error values of kind ServiceAPI, ServiceUsage or SDK.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}
