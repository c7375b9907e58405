// Package api exposes the task board over JSON/HTTP. Handlers decode and
// validate request DTOs, call the services with the authenticated actor and
// translate service errors into status codes and client-safe messages.
package api
