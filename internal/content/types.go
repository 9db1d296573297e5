package content

import "time"

// Meta is the derived metadata for one episode document.
type Meta struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Date           string   `json:"date"`
	Episode        string   `json:"episode,omitempty"`
	Cover          string   `json:"cover,omitempty"`
	Description    string   `json:"description,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ReadingMinutes int      `json:"readingMinutes"`
}

// Episode is a full episode: metadata plus the rendered body.
type Episode struct {
	Meta
	HTML string `json:"html"`
}

// entry is an index item: metadata plus what is needed to render lazily.
type entry struct {
	Meta
	filePath string
	body     []byte
	modTime  time.Time
}
