/*
Package session manages live simulations on behalf of the transports.

A session pairs a machine description with its input and its latest
configuration. The Manager serializes access per session ID with ref-counted
local locks and, when configured, a distributed lock, so replicas sharing a
Redis store never interleave steps of the same run.
*/
package session
