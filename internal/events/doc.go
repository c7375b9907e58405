// Package events provides in-process notifications of committed project and
// task changes.
//
// Services emit an Event after their transaction commits; handlers registered
// on the emitter react to it without the service knowing about them. The
// built-in handlers evict cached projects and write an audit log line.
package events
