// Package ffprobe inspects media containers with ffprobe.
//
// Inspect runs ffprobe through a toolexec.Runner so invocations share the
// toolkit's timeout, stderr capture and metrics. Result helpers report
// stream counts, the first video stream's dimensions and the container
// duration.
package ffprobe
