// Package measure fuses the top and side camera views into one measurement.
//
// A TopViewAnalyzer calibrates against the known-size enclosure and classifies
// the object inside it. A HeightEstimator calibrates against the dark reference
// strip in the side view and measures the object's vertical extent. A Session
// runs both and carries the object's position from the top view over to the side
// view as a height correction.
//
// Empty scenes, unclassifiable shapes and unusable calibrations are reported in
// the returned values (HasPrimary, RatioOK, Height.Valid), not as errors. Errors
// are reserved for input that cannot be processed at all, such as a zero-size frame.
//
// Every type here is stateless between calls and safe for concurrent use.
package measure
