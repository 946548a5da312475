package pagination

// Pagination is offset-based paging bound from query parameters.
type Pagination struct {
	Page    int `form:"page,default=1" validate:"gte=1"`
	PerPage int `form:"per_page,default=15" validate:"gte=1,lte=100"`
}

type PageInfo struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 15
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func BuildPageInfo(p Pagination, total int64) PageInfo {
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return PageInfo{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		LastPage:    lastPage,
	}
}
