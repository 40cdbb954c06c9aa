package model

import "time"

// ShortLink is a stored mapping from a short code to the URL it redirects to.
// Links are immutable once saved.
type ShortLink struct {
	Code        string
	OriginalURL string
	OwnerID     string
	CreatedAt   time.Time
}

// LinkRecord is the on-disk representation of a ShortLink in the JSON-lines store.
type LinkRecord struct {
	UUID        string    `json:"uuid"`
	Code        string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToLink converts a record back into a ShortLink.
func (r LinkRecord) ToLink() ShortLink {
	return ShortLink{
		Code:        r.Code,
		OriginalURL: r.OriginalURL,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
	}
}
