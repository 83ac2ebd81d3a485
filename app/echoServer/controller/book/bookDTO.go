package book

type BookReq struct {
	Cover           string   `json:"cover"`
	Title           string   `json:"title" validate:"required"`
	Authors         []string `json:"authors"`
	Description     string   `json:"description"`
	PublicationDate string   `json:"publication_date"`
	Publisher       string   `json:"publisher"`
	Pages           int      `json:"pages" validate:"gte=0"`
	Category        string   `json:"category"`
	TotalStock      int      `json:"total_stock" validate:"gte=0"`
}
