// Package sanitizer normalizes client input before validation and storage.
//
// All functions are idempotent and never fail: input they cannot make sense
// of is returned trimmed, and validation rejects it afterwards.
package sanitizer
