// Package output provides record sinks that write to streams and a fan-out
// sink that forwards each record to several sinks.
package output
