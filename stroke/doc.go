// Package stroke turns raw pointer samples into keyframe pairs.
//
// A Tracker keeps per-pointer state. The first sample of a stroke only
// primes the pointer; each later sample yields a (previous, current) pair
// ready for bridge.Invoke. Size and speed are smoothed over the last 16
// steps, distance accumulates over the stroke, and counter numbers strokes
// in the order they started.
package stroke
