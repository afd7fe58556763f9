// Where: internal/definitions/reloading.go
// What: Identity token carry-over across configuration reloads.
// Why: Working directories are keyed by identity tokens, so a reload
//      must not orphan bundles assembled under the previous load.
package definitions

import (
	"sort"
	"strings"
)

// tokenSetter is satisfied by every document view through the embedded
// data wrapper.
type tokenSetter interface {
	Set(value any, keys ...string)
}

// CarryIdentityTokens copies identity tokens from a previously loaded
// configuration into a freshly loaded one. Targets match when their
// kinds agree and their name lists intersect; dependency sources match
// by kind, manifest and declared packages.
func CarryIdentityTokens(previous, next *Configuration) {
	if previous == nil || next == nil {
		return
	}
	next.Set(previous.UUID(), uuidKey)

	candidates := previous.Targets()
	for _, target := range next.Targets() {
		match := matchReloadedTarget(candidates, target)
		if match == nil {
			continue
		}
		target.Set(match.UUID(), uuidKey)
		target.Bundle().Set(match.Bundle().UUID(), uuidKey)
		carrySourceTokens(match.Dependencies(), target.Dependencies())
	}
}

func matchReloadedTarget(candidates []*Target, target *Target) *Target {
	for _, candidate := range candidates {
		if candidate.Kind() != target.Kind() {
			continue
		}
		for _, name := range target.Names() {
			if contains(candidate.Names(), name) {
				return candidate
			}
		}
	}
	return nil
}

func carrySourceTokens(previous, next *DependencyGroup) {
	tokens := map[string]string{}
	for _, source := range previous.Sources() {
		tokens[sourceSignature(source)] = source.UUID()
	}
	for _, source := range next.Sources() {
		token, ok := tokens[sourceSignature(source)]
		if !ok {
			continue
		}
		if setter, ok := source.(tokenSetter); ok {
			setter.Set(token, uuidKey)
		}
	}
}

// sourceSignature identifies a source by what it declares rather than
// by its token, so an edited document still matches its old entries.
func sourceSignature(source Dependency) string {
	parts := []string{string(source.Kind()), source.ManifestPath()}
	if declarer, ok := source.(interface{ InlinePackages() []string }); ok {
		packages := append([]string(nil), declarer.InlinePackages()...)
		sort.Strings(packages)
		parts = append(parts, packages...)
	}
	return strings.Join(parts, "|")
}
