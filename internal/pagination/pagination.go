// Package pagination computes page windows for list endpoints and the client
// list controller.
package pagination

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Request is a 1-based page request.
type Request struct {
	Page    int
	PerPage int
}

// Normalize applies defaults: page below 1 becomes 1, perPage outside
// (0, MaxPerPage] becomes DefaultPerPage or MaxPerPage.
func Normalize(page, perPage int) Request {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Request{Page: page, PerPage: perPage}
}

func (r Request) Offset() int { return (r.Page - 1) * r.PerPage }

func (r Request) Limit() int { return r.PerPage }

// TotalPages is ceil(total/perPage). An empty result still has one page so
// that page 1 is always addressable.
func TotalPages(total int64, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Clamp keeps page within [1, TotalPages(total, perPage)].
func Clamp(page int, total int64, perPage int) int {
	last := TotalPages(total, perPage)
	if page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Window describes the visible slice of a list: items From..To of Total,
// both 1-based and inclusive. From and To are 0 when the list is empty.
type Window struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	From       int64 `json:"from"`
	To         int64 `json:"to"`
}

// NewWindow clamps page and computes the visible range.
func NewWindow(page, perPage int, total int64) Window {
	r := Normalize(page, perPage)
	p := Clamp(r.Page, total, r.PerPage)
	w := Window{
		Page:       p,
		PerPage:    r.PerPage,
		Total:      total,
		TotalPages: TotalPages(total, r.PerPage),
	}
	if total > 0 {
		w.From = int64(p-1)*int64(r.PerPage) + 1
		w.To = min(int64(p)*int64(r.PerPage), total)
	}
	return w
}

func (w Window) HasPrev() bool { return w.Page > 1 }

func (w Window) HasNext() bool { return w.Page < w.TotalPages }
