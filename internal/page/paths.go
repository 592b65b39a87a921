package page

// Routes the pages redirect between. /login is served by the auth service.
const (
	HomePath       = "/"
	LoginPath      = "/login"
	OnboardingPath = "/onboarding"
)
