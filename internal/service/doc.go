// Package service contains the application's business logic, composing the
// store interfaces with the realtime event sink. Services own the
// status-transition side effects; handlers stay thin.
package service
