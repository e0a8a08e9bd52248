// Package api contains the HTTP handlers for the application's REST surface:
// authentication, task CRUD with comments, and the notification inbox.
// Handlers decode and validate requests, delegate to the service layer and
// map domain/store errors onto HTTP status codes via the shared response
// helpers.
package api
