package analyzer

import "fmt"

// FetchError reports that the product page could not be downloaded:
// a bad URL, a network failure, a timeout or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(pageURL string, err error) *FetchError {
	return &FetchError{URL: pageURL, Err: err}
}
