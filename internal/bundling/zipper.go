// Where: internal/bundling/zipper.go
// What: Zip archive creation for assembled bundles.
// Why: Produce byte-stable artifacts so re-bundling unchanged sources
//      yields identical uploads.
package bundling

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

// zipEpoch is the fixed timestamp stamped on every archive entry so
// artifact bytes depend only on content.
var zipEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type archiveEntry struct {
	path    string
	arcname string
}

// createZip archives the assembled bundle directory. Function bundles
// place site packages at the archive root as the Lambda runtime
// expects, while layer bundles keep the python/ directory so the
// attached layer mounts correctly.
func (b *Bundler) createZip(target *definitions.Target) error {
	sitePackagesRoot := target.SitePackagesDirectory()
	if target.Kind() == definitions.TargetKindLayer {
		sitePackagesRoot = target.BundleDirectory()
	}

	var entries []archiveEntry
	for _, path := range target.Bundle().SitePackagePaths() {
		arcname, err := filepath.Rel(sitePackagesRoot, path)
		if err != nil {
			return fmt.Errorf("resolve archive name: %w", err)
		}
		entries = append(entries, archiveEntry{path: path, arcname: arcname})
	}
	for _, copyPath := range target.Bundle().CopyPaths() {
		arcname, err := filepath.Rel(target.BundleDirectory(), copyPath.Destination)
		if err != nil {
			return fmt.Errorf("resolve archive name: %w", err)
		}
		entries = append(entries, archiveEntry{path: copyPath.Destination, arcname: arcname})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].arcname < entries[j].arcname
	})

	file, err := os.Create(target.BundleZipPath())
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	seen := map[string]bool{}
	for _, entry := range entries {
		if seen[entry.arcname] {
			continue
		}
		seen[entry.arcname] = true
		if err := writeArchiveEntry(writer, entry); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

func writeArchiveEntry(writer *zip.Writer, entry archiveEntry) error {
	source, err := os.Open(entry.path)
	if err != nil {
		return fmt.Errorf("open archive source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat archive source: %w", err)
	}

	header := &zip.FileHeader{
		Name:     filepath.ToSlash(entry.arcname),
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	header.SetMode(info.Mode().Perm())

	destination, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := io.Copy(destination, source); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}
	return nil
}
