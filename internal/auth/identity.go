package auth

// Identity is what an OIDC provider asserts about the person who just
// signed in. It carries facts only; user resolution happens elsewhere.
type Identity struct {
	Provider       string // registry name, e.g. "google", "keycloak"
	ProviderUserID string // provider-scoped subject (sub)
	Email          string
	EmailVerified  bool
}
