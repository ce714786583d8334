package model

import "time"

// MaxOriginalURLLength bounds the stored original URL.
const MaxOriginalURLLength = 2000

// URL is a persisted original URL to short code mapping.
type URL struct {
	ID             int64
	OriginalURL    string
	ShortCode      string
	CreatedByID    string
	CreatedAt      time.Time
	ClickCount     int64
	LastAccessedAt *time.Time
}

// URLWithOwner joins a mapping with the display data of its owner.
type URLWithOwner struct {
	URL
	OwnerUsername  string
	OwnerFirstName string
	OwnerLastName  string
}

// URLView is the external representation of a mapping.
type URLView struct {
	ID               int64      `json:"id"`
	OriginalURL      string     `json:"originalUrl"`
	ShortCode        string     `json:"shortCode"`
	ShortURL         string     `json:"shortUrl"`
	CreatedBy        string     `json:"createdBy"`
	CreatedDate      time.Time  `json:"createdDate"`
	ClickCount       int64      `json:"clickCount"`
	LastAccessedDate *time.Time `json:"lastAccessedDate"`
}

// URLDetails extends URLView with the owner's full name.
type URLDetails struct {
	URLView
	CreatedByFullName string `json:"createdByFullName"`
}

// CreateURLRequest is the body of POST /api/urls.
type CreateURLRequest struct {
	OriginalURL string `json:"originalUrl"`
}
