package database

// Pagination describes one page of an ordered result set.
type Pagination struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
}

// NewPagination clamps page and perPage to sane values and computes the page
// count. A page past the end becomes the first missing page, so callers can
// still report it as out of range and Offset cannot overflow.
func NewPagination(page, perPage, total int) Pagination {
	if perPage < 1 {
		perPage = 20
	}
	pages := (total + perPage - 1) / perPage
	page = max(1, min(page, pages+1))
	return Pagination{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// Offset returns the row offset of the first item on the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// OutOfRange reports whether the page lies past the last page. Page 1 of an
// empty set is in range.
func (p Pagination) OutOfRange() bool {
	return p.Page > 1 && p.Page > p.Pages
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.Pages }
func (p Pagination) PrevNum() int  { return p.Page - 1 }
func (p Pagination) NextNum() int  { return p.Page + 1 }

// IterPages returns page numbers to render, with 0 marking a gap. It keeps
// the first and last two pages and two pages either side of the current one.
func (p Pagination) IterPages() []int {
	var out []int
	last := 0
	for n := 1; n <= p.Pages; n++ {
		if n <= 2 || n > p.Pages-2 || (n >= p.Page-2 && n <= p.Page+2) {
			if last+1 != n {
				out = append(out, 0)
			}
			out = append(out, n)
			last = n
		}
	}
	return out
}
