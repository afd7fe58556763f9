package definitions

import "testing"

func attachedLayer(t *testing.T, data map[string]any) *AttachedLayer {
	t.Helper()
	configuration := testConfiguration(t, map[string]any{
		"region": "eu-west-1",
		"targets": []any{map[string]any{
			"names":  []any{"foo-bar", "baz"},
			"layers": []any{data},
		}},
	})
	attachments := configuration.Targets()[0].LayerAttachments()
	if len(attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(attachments))
	}
	return attachments[0]
}

func TestAttachedLayerFromName(t *testing.T) {
	layer := attachedLayer(t, map[string]any{"name": "shared-deps"})

	if layer.Name() != "shared-deps" {
		t.Fatalf("name = %q", layer.Name())
	}
	if layer.Version() != 0 {
		t.Fatalf("version = %d, want floating", layer.Version())
	}
	want := "arn:aws:lambda:eu-west-1:111122223333:layer:shared-deps"
	if layer.Arn() != want {
		t.Fatalf("arn = %q, want %q", layer.Arn(), want)
	}
}

func TestAttachedLayerPinnedVersion(t *testing.T) {
	layer := attachedLayer(t, map[string]any{"name": "shared-deps", "version": 4})

	if layer.Version() != 4 {
		t.Fatalf("version = %d", layer.Version())
	}
	want := "arn:aws:lambda:eu-west-1:111122223333:layer:shared-deps:4"
	if layer.Arn() != want {
		t.Fatalf("arn = %q", layer.Arn())
	}
}

func TestAttachedLayerFromArn(t *testing.T) {
	arn := "arn:aws:lambda:us-east-1:999999999999:layer:external:12"
	layer := attachedLayer(t, map[string]any{"arn": arn})

	if layer.Name() != "external" {
		t.Fatalf("name = %q", layer.Name())
	}
	if layer.Version() != 12 {
		t.Fatalf("version = %d", layer.Version())
	}
	if layer.Arn() != arn {
		t.Fatalf("arn = %q", layer.Arn())
	}
}

func TestAttachedLayerScoping(t *testing.T) {
	layer := attachedLayer(t, map[string]any{
		"name": "shared-deps",
		"only": []any{"foo-*"},
	})
	if !layer.IsAttachable("foo-bar") {
		t.Fatal("only pattern rejected a matching function")
	}
	if layer.IsAttachable("baz") {
		t.Fatal("only pattern admitted an unmatched function")
	}

	excluded := attachedLayer(t, map[string]any{
		"name":   "shared-deps",
		"except": []any{"foo-bar"},
	})
	if excluded.IsAttachable("foo-bar") {
		t.Fatal("except pattern did not exclude")
	}
	if !excluded.IsAttachable("baz") {
		t.Fatal("except pattern excluded an unrelated function")
	}
}

func TestAttachedLayerStringShorthand(t *testing.T) {
	configuration := testConfiguration(t, map[string]any{
		"targets": []any{map[string]any{
			"name":   "f",
			"layers": []any{"shared-deps"},
		}},
	})
	attachments := configuration.Targets()[0].LayerAttachments()
	if len(attachments) != 1 || attachments[0].Name() != "shared-deps" {
		t.Fatalf("shorthand attachment = %+v", attachments)
	}
}
