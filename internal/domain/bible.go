package domain

// BiblePassage is a retrieved passage or chapter.
type BiblePassage struct {
	Reference   string
	Translation string
	Verses      []Verse
}

// Translation describes one available Bible translation.
type Translation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// VectorDocument is one verse prepared for the semantic index.
type VectorDocument struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

// VectorMatch is one ranked semantic search result.
type VectorMatch struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Reference string  `json:"reference"`
	Text      string  `json:"text"`
}
