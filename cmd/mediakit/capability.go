package main

import (
	"context"

	"github.com/google/uuid"

	"mediakit/internal/daemon"
	"mediakit/internal/jobs"
	"mediakit/internal/services"
)

// cliJob is one ledger-tracked unit of work started from the terminal.
type cliJob struct {
	id         string
	kind       jobs.Kind
	ctx        context.Context
	components *daemon.Components
}

func beginJob(ctx context.Context, c *daemon.Components, kind jobs.Kind, source string) *cliJob {
	id := uuid.NewString()
	ctx = services.WithJobID(ctx, id)
	c.Recorder.Begin(ctx, id, kind, source)
	return &cliJob{
		id:         id,
		kind:       kind,
		ctx:        ctx,
		components: c,
	}
}

func (j *cliJob) finish(artifact, detail string, err error) {
	j.components.Recorder.Finish(j.ctx, j.id, j.kind, artifact, detail, err)
}

// mirror uploads path when a mirror is configured. A failed upload is
// reported in the returned detail and never fails the job.
func (j *cliJob) mirror(path string) (location, detail string) {
	m := j.components.Mirror
	if !m.Enabled() {
		return "", ""
	}
	location, err := m.Publish(j.ctx, path)
	if err != nil {
		return "", "mirror failed: " + services.UserMessage(err)
	}
	return location, "mirrored to " + location
}
