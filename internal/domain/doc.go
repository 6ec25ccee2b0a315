// Package domain defines core data models and interfaces shared across the app.
// It contains plain types (principals, accounts, user info, closed error sets)
// and contracts (interfaces) only.
package domain
