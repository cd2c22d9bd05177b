package models

// WordPair is one drawable pair: everyone but the spy gets Normal.
type WordPair struct {
	Normal string `json:"normal"`
	Spy    string `json:"spy"`
}

// Category groups word pairs under a selectable theme.
type Category struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	WordPairs []WordPair `json:"wordPairs"`
}
