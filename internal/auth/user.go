package auth

// User is the authenticated principal behind a request, as reported by
// whichever identity provider the guard is configured with.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}
