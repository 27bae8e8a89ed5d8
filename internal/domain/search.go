package domain

type SearchQuery struct {
	Text     string  `json:"query"`
	K        int     `json:"k,omitempty"`
	City     string  `json:"city,omitempty"`
	MinStars int     `json:"min_stars,omitempty"`
	MaxPrice float64 `json:"max_price,omitempty"`
}

func (q SearchQuery) Filtered() bool {
	return q.City != "" || q.MinStars > 0 || q.MaxPrice > 0
}

type SearchHit struct {
	Hotel Hotel   `json:"hotel"`
	Score float64 `json:"score"`
}

type Answer struct {
	Text string      `json:"answer"`
	Hits []SearchHit `json:"hotels"`
}
