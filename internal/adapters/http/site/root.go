// Package site serves the spectator page that follows a session in the
// browser.
package site

import (
	"context"
	"net/http"
)

// Register attaches the spectator page to the root of mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
