// Package bootanim builds Magisk-style boot animation modules from a video.
//
// A build runs four stages in strict order inside a job workspace:
//
//  1. frames: ffmpeg scales, pads and samples the video into part0/%05d.jpg
//  2. descriptor: desc.txt with geometry, frame rate and loop count
//  3. animation: bootanimation.zip holding desc.txt and the part0 frames
//  4. package: module.zip with module.prop, any template files found, and
//     the animation archive at common/cool_modules/bootanimation.zip
//
// When an ffprobe binary is configured a probe stage runs first. It rejects
// sources without a video stream and records the source duration; a probe
// that cannot run is logged and skipped.
//
// The first failing stage aborts the build. The finished package is moved into
// the output directory as {jobID}-bootanimation-module.zip and the workspace is
// removed whatever the outcome.
package bootanim
