// Package mottime owns the MOT time codecs.
//
// Ownership boundary:
// - absolute time: MJD date plus UTC time of day, short (4 byte) or long (6 byte) form
// - relative time: one byte, 2 bit granularity plus 6 bit interval
//
// Absolute "now" is represented by the zero time.Time.
package mottime
