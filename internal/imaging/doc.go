// Package imaging provides the frame-level operations of the measurement pipeline.
//
// This package turns camera frames into boolean foreground masks and offers the
// small set of image utilities the rest of the system needs: loading frames from
// disk, cropping, color-space conversion, and drawing annotations.
// All operations work with standard Go image.Image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y increases downward.
//
// # Segmentation
//
// Two segmentation modes exist, one per camera:
//
//   - Top: grayscale, Gaussian smoothing (5-tap kernel at the default radius), then an
//     inverse threshold. Dark pixels at or below the cutoff are foreground.
//   - Side: two masks. The reference mask is an inverse threshold of the unblurred
//     grayscale frame (the dark calibration strip). The object mask keeps pixels whose
//     HSV color falls inside the configured band and whose brightness is not in the
//     floor range.
//
// Segmentation is a pure transform. A mask with no foreground is a valid result and
// is reported by Mask.Empty rather than as an error; only a zero-size frame is an error.
//
// # Masks
//
// Masks are always origin-anchored: whatever the bounds of the source frame, mask
// coordinate (0,0) is the frame's top-left pixel. Cropped images returned by Crop
// follow the same convention.
//
// # Thread Safety
//
// The FrameCache type is safe for concurrent use. Individual operations are stateless
// and can be called concurrently on different frames.
package imaging
