package bootanim

import (
	"context"
	"fmt"
	"os"

	"mediakit/internal/services"
)

// Descriptor renders desc.txt: the frame geometry and rate, then a single
// part line that plays part0 Loop times (0 = until boot completes).
func Descriptor(p Params) string {
	return fmt.Sprintf("%d %d %d\np %d 0 part0\n", p.Width, p.Height, p.FPS, p.Loop)
}

func writeDescriptorFile(path string, p Params) error {
	return os.WriteFile(path, []byte(Descriptor(p)), 0o644)
}

func (b *Builder) generateDescriptor(_ context.Context, j *job) error {
	if err := b.writeDescriptor(j.ws.DescriptorPath(), j.params); err != nil {
		return services.Wrap(services.ErrIO, stageDescriptor, "write", "write desc.txt", err)
	}
	return nil
}
