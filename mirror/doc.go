// Package mirror tells an external durable mirror that the store changed.
//
// Every committed mutation produces an Event. A Dispatcher queues events
// and hands them to a Syncer one at a time, throttled and retried with
// exponential backoff. Delivery is best effort: a failed sync is logged
// and never reported back to the code that made the change.
package mirror
