// Package app wires application dependencies for the CLI.
//
// It loads Config, builds the logger, the key-value store, the identity store,
// the identity provider, the remote service dialer and the session controller,
// and exposes them via the Wire struct for commands to use.
package app
