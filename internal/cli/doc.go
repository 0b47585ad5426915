// Package cli translates command-line arguments into an app.Config. It owns
// flag parsing, usage text and validation of user-facing options.
package cli
