// Package domain defines the core domain types shared across packages.
//
// Concept-oriented files (network.go, picture.go, errors.go) hold plain data types and sentinel errors;
// app.go holds the interfaces the application layer and HTTP adapter depend on.
// No implementation code lives here, which keeps imports acyclic.
package domain
