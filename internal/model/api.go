package model

// CreateRequest is the body of POST /urls.
type CreateRequest struct {
	URL    string `json:"url"`
	UserID string `json:"userId"`
}

// CreateResponse is returned after a link has been created.
type CreateResponse struct {
	ShortCode string `json:"shortCode"`
	ShortURL  string `json:"shortUrl"`
}

// UserURL is a single entry of a user's link listing.
type UserURL struct {
	ShortCode   string `json:"shortCode"`
	OriginalURL string `json:"originalUrl"`
	ShortURL    string `json:"shortUrl"`
}

// ListResponse is the body of GET /urls?userId=ID.
type ListResponse struct {
	URLs []UserURL `json:"urls"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatsResponse reports how many links and distinct owners the store holds.
type StatsResponse struct {
	URLs  int `json:"urls"`
	Users int `json:"users"`
}

// SignInResponse is returned by the OAuth callback once the ID token is verified.
type SignInResponse struct {
	IDToken string `json:"idToken"`
	UserID  string `json:"userId"`
	Email   string `json:"email,omitempty"`
}
