package service

// Page is one page of an ordered result set. Number is 1-based.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Number   int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	NumPages int   `json:"num_pages"`
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

// clampPage picks the page to serve the same way a lenient paginator does:
// anything below 1 is the first page, anything past the end is the last one.
// There is always at least one (possibly empty) page.
func clampPage(page, pageSize int, total int64) (number, numPages int) {
	numPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	if numPages < 1 {
		numPages = 1
	}

	number = page
	if number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}

	return number, numPages
}
