// Package api handles incoming HTTP requests, routing, request
// validation, and response formatting. It is the adapter between external
// clients and the internal services, keeping HTTP concerns out of the
// business logic.
package api
