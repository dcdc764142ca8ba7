package feed

import (
	"errors"
	"strconv"

	"github.com/anonto42/yatube/backend/internal/models"
)

// DefaultPageSize is the number of posts on one page of a listing
const DefaultPageSize = 10

// ErrPageOutOfRange is returned for page numbers below 1
var ErrPageOutOfRange = errors.New("page out of range")

// Page is one window of a post listing. Numbers are 1-indexed.
type Page struct {
	Posts    []models.Post
	Number   int
	NumPages int
	Count    int64
}

func (p *Page) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page) HasPrevious() bool { return p.Number > 1 }
func (p *Page) NextNumber() int   { return p.Number + 1 }
func (p *Page) PrevNumber() int   { return p.Number - 1 }
func (p *Page) Len() int          { return len(p.Posts) }

// PageRange lists every page number, for rendering the page links.
func (p *Page) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ParsePageNumber reads the ?page= value. Missing or non-numeric values
// mean the first page.
func ParsePageNumber(raw string) int {
	if raw == "last" {
		return lastPage
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

// lastPage stands for "whatever the last page is"; any number past the end
// resolves the same way.
const lastPage = int(^uint(0) >> 1)

// window resolves a requested page number against count items. Numbers past
// the end clamp to the last page; an empty listing still has one page.
func window(number int, count int64, size int) (page, numPages, offset int, err error) {
	if number < 1 {
		return 0, 0, 0, ErrPageOutOfRange
	}
	numPages = int((count + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	if number > numPages {
		number = numPages
	}
	return number, numPages, (number - 1) * size, nil
}
