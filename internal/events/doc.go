// Package events decouples task producers from the worker that runs the tasks.
//
// Producers such as the HTTP submission API describe the work they want done
// as a TaskRequestEvent and hand it to an EventEmitter. Handlers registered
// with the emitter turn events into tasks; producers never import the task
// engine directly.
package events
