// Package message classifies raw message rows by type tag and renders each
// into markup-safe content. One bad record never aborts a window: every
// handler is total and substitutes a placeholder on malformed input.
package message

import (
	"time"
)

// Kind is the enumerated message category behind the store's numeric type
// tags.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindAudio
	KindVideo
	KindEmoji
	KindLocation
	KindLink
	KindSystem
	KindOther
)

// Type tags as stored in the export.
const (
	TagText     = 1
	TagImage    = 3
	TagAudio    = 34
	TagXML      = 42
	TagVideo    = 43
	TagEmoji    = 47
	TagLocation = 48
	TagLink     = 49
	TagSystem   = 10000
)

// KindOf maps a store type tag to its category. Unrecognized tags (including
// the legacy 42 xml rows) fall into KindOther and render as pass-through.
func KindOf(tag int) Kind {
	switch tag {
	case TagText:
		return KindText
	case TagImage:
		return KindImage
	case TagAudio:
		return KindAudio
	case TagVideo:
		return KindVideo
	case TagEmoji:
		return KindEmoji
	case TagLocation:
		return KindLocation
	case TagLink:
		return KindLink
	case TagSystem:
		return KindSystem
	default:
		return KindOther
	}
}

// NormalizedRecord is one displayed entry: timestamp in presentation epoch
// seconds, resolved speaker, the original type tag, and rendered content.
type NormalizedRecord struct {
	Timestamp int64  `json:"timestamp"`
	Speaker   string `json:"speaker"`
	TypeTag   int    `json:"type"`
	Content   string `json:"content"`
}

// mergeSeparator joins coalesced message bodies.
const mergeSeparator = "; "

// Normalizer accumulates normalized records for one window, coalescing
// consecutive same-speaker, same-type entries that arrive within the merge
// window of the previous record.
type Normalizer struct {
	window time.Duration
	recs   []NormalizedRecord
	lastTS int64
}

// NewNormalizer creates a normalizer with the given merge window.
func NewNormalizer(window time.Duration) *Normalizer {
	return &Normalizer{window: window}
}

// Append adds a record, merging it into the previous entry when speaker and
// type match and the gap since the previous raw record is under the merge
// window. The gap is measured against the last appended record's timestamp,
// not the merged entry's first timestamp.
func (n *Normalizer) Append(rec NormalizedRecord) {
	gap := rec.Timestamp - n.lastTS
	n.lastTS = rec.Timestamp

	if len(n.recs) > 0 {
		last := &n.recs[len(n.recs)-1]
		if last.Speaker == rec.Speaker && last.TypeTag == rec.TypeTag && gap < int64(n.window/time.Second) {
			last.Content += mergeSeparator + rec.Content
			return
		}
	}
	n.recs = append(n.recs, rec)
}

// Records returns the accumulated entries in timestamp order.
func (n *Normalizer) Records() []NormalizedRecord {
	return n.recs
}
