// Package apiclient is the typed Go client for the card ledger API.
//
// client.gen.go is produced from ../openapi.yaml by `go generate ./internal/api`
// and is not checked in. The server does not use this package; its request and
// response bodies live in package api.
package apiclient
