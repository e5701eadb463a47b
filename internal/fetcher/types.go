package fetcher

import "fmt"

// FetchError wraps a backend failure that survived the retry/backoff
// policy. It is only ever returned after retries are exhausted or a
// fatal (non-retriable) backend error was detected.
type FetchError struct {
	Chain     string
	FromBlock uint64
	ToBlock   uint64
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetcher: getLogs(%s, %d, %d) failed: %v", e.Chain, e.FromBlock, e.ToBlock, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
