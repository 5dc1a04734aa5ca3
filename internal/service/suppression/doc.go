// Package suppression implements the organization do-not-mail list.
//
// Entries flow in from manual admin actions, returned mail and NCOA
// move notices. Every record added to a list is checked against them; a
// match is stored with status suppressed instead of being dropped, so the
// list keeps an honest picture of what was pulled.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
