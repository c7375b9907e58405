// Package store declares the persistence contracts the services depend on:
// one interface per aggregate (users, projects with their members, tasks and
// task history), the filter and page types used by list queries, and the
// transaction helpers. Implementations live in internal/platform/postgres.
package store
