package model

import "time"

// DefaultAboutContent describes the code generation algorithm until an admin edits it.
const DefaultAboutContent = "URL Shortener Algorithm: This application uses a simple random character generation approach to create short codes. " +
	"Each URL is assigned a unique 6-character code using a combination of uppercase letters, lowercase letters, and numbers. " +
	"The system checks for duplicates to ensure uniqueness."

// About is the editable description page.
type About struct {
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
	ModifiedByID string    `json:"-"`
	ModifiedBy   string    `json:"modifiedBy"`
}

type UpdateAboutRequest struct {
	Content string `json:"content"`
}
