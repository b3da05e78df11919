// Package notify delivers table change notifications from the store to
// live readers.
//
// Hub is the in-process implementation. RedisHub wraps a Hub and relays
// notifications through Redis pub/sub so that readers in other processes
// sharing the same store are woken up too.
package notify
