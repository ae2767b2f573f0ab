// Package rate implements Redis-backed fixed-window login throttling.
package rate
