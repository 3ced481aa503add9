package fetch

import "fmt"

// FetchError reports a failed request. It is returned by the methods that
// send a request, never by Client.Request or Client.Do.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
