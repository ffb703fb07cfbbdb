package templates

// PageContext provides shared layout context for admin pages.
type PageContext struct {
	Lang         string
	Loc          Localizer
	CurrentPath  string
	CurrentQuery string
	// CSRFToken is echoed by every form on the page.
	CSRFToken string
	// Message is a flash message carried through a redirect.
	Message string
}
