// Package cache provides Daily, a single-slot cache whose entry is valid for one UTC calendar day.
//
// Get holds an exclusive lock for its whole duration, including the upstream fetch. Concurrent misses therefore
// queue behind the first caller and find the fresh entry once they acquire the lock: at most one fetch runs per day
// without an in-flight registry. All accesses are serialized, which is fine because the slow path is rare.
package cache
