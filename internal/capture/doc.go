// Package capture acquires frames from the top and side cameras and hands the
// measurement step a consistent pair of them.
//
// Each camera is polled by its own goroutine that publishes into a LatestFrame
// cell. Readers never block: TryGet returns the most recent frame or reports that
// none has arrived yet. A Rig owns both loops and writes both cells under one lock,
// so Snapshot always sees a pair that existed together.
package capture
