package bootanim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mediakit/internal/services"
)

// archiveTool labels archive runs in the tool metrics.
const archiveTool = "zip"

// animationEntryName is where the animation archive sits inside the package.
const animationEntryName = "common/cool_modules/bootanimation.zip"

// templateEntries are copied from the template directory into the package when
// present. Directories are copied recursively.
var templateEntries = []string{
	"META-INF",
	"customize.sh",
	"uninstall.sh",
	"common/functions.sh",
	"common/install.sh",
	"common/COOLBOOT",
	"common/cool_modules/bootaudio.mp3",
}

// ModuleIdentity is written to module.prop.
type ModuleIdentity struct {
	ID          string
	Version     string
	VersionCode int
	Author      string
}

// ModuleProp renders module.prop for a package called name.
func ModuleProp(id ModuleIdentity, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%s\n", id.ID)
	fmt.Fprintf(&b, "name=%s\n", name)
	fmt.Fprintf(&b, "version=%s\n", id.Version)
	fmt.Fprintf(&b, "versionCode=%d\n", id.VersionCode)
	fmt.Fprintf(&b, "author=%s\n", id.Author)
	fmt.Fprintf(&b, "description=Custom Boot Animation - %s\n", name)
	return b.String()
}

func (b *Builder) packageAnimation(ctx context.Context, j *job) error {
	entries := make([]Entry, 0, len(j.frames)+1)
	entries = append(entries, Entry{Name: "desc.txt", Path: j.ws.DescriptorPath()})
	for _, frame := range j.frames {
		entries = append(entries, Entry{
			Name: path.Join("part0", frame),
			Path: filepath.Join(j.ws.FramesDir(), frame),
		})
	}
	return b.archive(ctx, stageAnimation, j.ws.AnimationPath(), entries)
}

func (b *Builder) assemblePackage(ctx context.Context, j *job) error {
	entries := []Entry{{Name: "module.prop", Data: []byte(ModuleProp(b.identity, j.params.Name))}}
	tmpl, err := templateFiles(b.templateDir)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stagePackage, "template", "read module template", err)
	}
	entries = append(entries, tmpl...)
	entries = append(entries, Entry{Name: animationEntryName, Path: j.ws.AnimationPath()})

	if err := b.archive(ctx, stagePackage, j.ws.PackagePath(), entries); err != nil {
		return err
	}
	j.templateFiles = len(tmpl)
	return nil
}

// templateFiles lists the template entries that exist under dir. Missing
// entries, and a missing dir, are skipped.
func templateFiles(dir string) ([]Entry, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	var entries []Entry
	for _, name := range templateEntries {
		full := filepath.Join(dir, filepath.FromSlash(name))
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if info.IsDir() {
			tree, err := collectTree(full, name)
			if err != nil {
				return nil, err
			}
			entries = append(entries, tree...)
			continue
		}
		if info.Mode().IsRegular() {
			entries = append(entries, Entry{Name: name, Path: full})
		}
	}
	return entries, nil
}

func (b *Builder) archive(ctx context.Context, stage, dest string, entries []Entry) error {
	archiveCtx := ctx
	if b.archiveTimeout > 0 {
		var cancel context.CancelFunc
		archiveCtx, cancel = context.WithTimeout(ctx, b.archiveTimeout)
		defer cancel()
	}
	start := time.Now()
	err := b.archiver.Archive(archiveCtx, dest, entries)
	b.metrics.ObserveTool(archiveTool, time.Since(start), err)
	if err != nil {
		wrapped := services.Wrap(services.ErrExternalTool, stage, "archive", "create "+filepath.Base(dest), err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", services.ErrTimeout, wrapped)
		}
		return wrapped
	}
	return nil
}
