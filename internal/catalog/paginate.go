package catalog

const (
	MinPageSize     = 6
	MaxPageSize     = 12
	DefaultPageSize = 8
)

// Page is one chunk of search results.
type Page struct {
	Entries []Entry
	// Offset is the index of Entries[0] within the full result list.
	Offset int
	Number int
	Total  int
	Pages  int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.Pages }

// ClampPageSize keeps size within the supported range.
func ClampPageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size < MinPageSize:
		return MinPageSize
	case size > MaxPageSize:
		return MaxPageSize
	default:
		return size
	}
}

// Paginate returns page number of entries, clamped to [1, ceil(total/size)].
// An empty list yields a single empty page.
func Paginate(entries []Entry, page, size int) Page {
	size = ClampPageSize(size)
	total := len(entries)

	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Entries: entries[start:end],
		Offset:  start,
		Number:  page,
		Total:   total,
		Pages:   pages,
	}
}
