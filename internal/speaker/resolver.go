// Package speaker attributes each raw record to a resolved identity and
// maintains the directed co-presence graph over speakers for one window.
package speaker

import (
	"context"
	"strings"

	"github.com/jxue140/wxarchive/internal/message"
)

// speakerPrefix separates an internal identifier from the message body in
// payloads posted by anyone other than the export owner.
const speakerPrefix = ":\n"

// System is the speaker attributed to system-generated notices.
const System = "system"

// Unknown is the fallback when an embedded fragment should have named the
// speaker but could not be parsed.
const Unknown = "unknown"

// NameLookup resolves an internal identifier to a display name. *store.Store
// satisfies it.
type NameLookup interface {
	ResolveContactName(ctx context.Context, internalID string) (string, bool, error)
}

// Directory caches identifier resolutions for one window. Hits and misses
// are both cached so each distinct identifier is queried at most once.
type Directory struct {
	lookup NameLookup
	cache  map[string]string
}

// NewDirectory creates an empty per-window directory.
func NewDirectory(lookup NameLookup) *Directory {
	return &Directory{lookup: lookup, cache: make(map[string]string)}
}

// Resolve returns the display name for an internal identifier, falling back
// to the identifier itself when unresolved. Lookup failures count as misses:
// an unresolvable name never aborts a window.
func (d *Directory) Resolve(ctx context.Context, id string) string {
	if name, ok := d.cache[id]; ok {
		return name
	}
	name, ok, err := d.lookup.ResolveContactName(ctx, id)
	if err != nil || !ok {
		name = id
	}
	d.cache[id] = name
	return name
}

// Split separates the internal-identifier prefix from the message body.
// ok is false when the payload carries no prefix.
func Split(payload string) (id, body string, ok bool) {
	idx := strings.Index(payload, speakerPrefix)
	if idx < 0 {
		return "", payload, false
	}
	return payload[:idx], strings.TrimSpace(payload[idx+len(speakerPrefix):]), true
}

// Resolver determines the speaker of a raw payload.
type Resolver struct {
	dir   *Directory
	owner string
}

// NewResolver creates a resolver bound to one window's directory. owner is
// the configured data-owner display name, used for unprefixed posts.
func NewResolver(dir *Directory, owner string) *Resolver {
	return &Resolver{dir: dir, owner: owner}
}

// Resolve returns the speaker and the payload body with any prefix removed.
// Rules, in order: identifier prefix resolved through the directory;
// location/video fragments name the speaker in a fromusername attribute
// (already display form); tags above 1000 are system notices; everything
// else was posted by the owner.
func (r *Resolver) Resolve(ctx context.Context, payload string, typeTag int) (speaker, body string) {
	if id, rest, ok := Split(payload); ok {
		return r.dir.Resolve(ctx, id), rest
	}
	switch {
	case typeTag == message.TagLocation || typeTag == message.TagVideo:
		from, ok := message.FromUser(payload)
		if !ok {
			return Unknown, payload
		}
		return from, payload
	case typeTag > 1000:
		return System, payload
	}
	return r.owner, payload
}
