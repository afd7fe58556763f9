// Where: internal/deploying/uploader.go
// What: Bundle artifact upload to S3.
// Why: One timestamped upload per target plus server-side copies for
//      each additional deployed name.
package deploying

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poruru/lambda-shepherd/internal/definitions"
)

const uploadKeyPrefix = "lambda-deployer"

// Seams for tests.
var (
	timeNow          = time.Now
	objectSettlePoll = 500 * time.Millisecond
)

// objectSettleAttempts bounds the visibility polling after upload so a
// subsequent publish never races an S3 write that has not settled.
const objectSettleAttempts = 6

func openUploadFile(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle artifact: %w", err)
	}
	return file, nil
}

// uploadKeys derives the timestamped object keys for every deployed
// name of the target.
func uploadKeys(target *definitions.Target) []string {
	timestamp := strings.NewReplacer(":", "-", ".", "-").Replace(
		timeNow().UTC().Format("2006-01-02T15:04:05.000000"),
	)
	names := target.Names()
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, fmt.Sprintf(
			"%s/%s/%s/%s.zip",
			uploadKeyPrefix, target.Kind(), name, timestamp,
		))
	}
	return out
}

// upload sends the target's bundle artifact to its bucket under the
// first key and copies the object to the remaining keys. All keys are
// polled for visibility before returning.
func (d *Deployer) upload(ctx context.Context, target *definitions.Target) ([]string, error) {
	keys := uploadKeys(target)
	if len(keys) == 0 {
		return nil, nil
	}

	size := int64(0)
	if info, err := os.Stat(target.BundleZipPath()); err == nil {
		size = info.Size()
	} else if !d.DryRun {
		return nil, fmt.Errorf("bundling is required before deploy: %w", err)
	}

	bucket := target.Bucket()
	client := d.Clients.S3(target.Region())

	d.Console.Info(fmt.Sprintf(
		"Uploading %s (size: %s)", keys[0], definitions.HumanReadableSize(size),
	))
	if !d.DryRun {
		if err := client.Upload(ctx, bucket, keys[0], target.BundleZipPath()); err != nil {
			return nil, fmt.Errorf("upload bundle: %w", err)
		}
	}

	for _, key := range keys[1:] {
		d.Console.ItemPlain(fmt.Sprintf("Copying %s -> %s", keys[0], key))
		if !d.DryRun {
			if err := client.Copy(ctx, bucket, keys[0], key); err != nil {
				return nil, fmt.Errorf("copy bundle object: %w", err)
			}
		}
	}

	if !d.DryRun {
		if err := d.waitForObjects(ctx, client, bucket, keys); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// waitForObjects polls each uploaded key until it is readable, so the
// publish step never references an object that has not settled yet.
func (d *Deployer) waitForObjects(ctx context.Context, client S3API, bucket string, keys []string) error {
	for _, key := range keys {
		visible := false
		for attempt := 0; attempt < objectSettleAttempts; attempt++ {
			exists, err := client.Exists(ctx, bucket, key)
			if err != nil {
				return fmt.Errorf("check uploaded object: %w", err)
			}
			if exists {
				visible = true
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(objectSettlePoll):
			}
		}
		if !visible {
			return fmt.Errorf("uploaded object %s not visible in bucket %s", key, bucket)
		}
	}
	return nil
}
