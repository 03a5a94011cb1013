// Package api contains the HTTP handlers, request/response types and
// error mapping for the circulation service's REST surface.
package api
