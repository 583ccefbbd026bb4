// Package app provides the application service layer.
//
// Orchestrates the astronomy use cases: the day-cached picture and the FITS lookup keyed on it.
// Sits between HTTP handlers and upstream clients. Depends on domain interfaces, not concrete implementations.
package app
