// Package handler implements the HTTP surface of the fabricview viewer.
//
// # Handlers
//
// ViewHandler serves the dataset catalogue, the current frame, the raw
// topology of the displayed dataset and device lookups. It also accepts
// dataset switch requests.
//
// The /ws endpoint is the interactive channel: the browser forwards pointer
// input and dataset selections, and receives a frame after every change.
//
// Middleware provides panic recovery, CORS, request logging and gzip.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes (200, 202).
// Error responses return JSON with {error, details} structure.
package handler
