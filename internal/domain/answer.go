package domain

// Verse is a single referenced scripture passage.
type Verse struct {
	Reference   string `json:"reference"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
	Link        string `json:"link,omitempty"`
}

// Commentary is an excerpt from a study commentary source.
type Commentary struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Link   string `json:"link,omitempty"`
}

// ChatResponse is the normalized answer shape produced by either AI provider.
type ChatResponse struct {
	AIAnswer           string       `json:"aiAnswer"`
	ReferencedVerses   []Verse      `json:"referencedVerses"`
	CommentaryExcerpts []Commentary `json:"commentaryExcerpts"`
}

// Explanation holds the three study sections returned for a single verse.
type Explanation struct {
	Theological string `json:"theological"`
	Historical  string `json:"historical"`
	Application string `json:"application"`
}
