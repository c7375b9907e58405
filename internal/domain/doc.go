// Package domain contains the core business entities of the task board:
// users, projects, tasks and the task history audit trail. It holds the
// validation rules for those entities and is independent of any storage
// or delivery mechanism.
package domain
