package message

import (
	"encoding/xml"
	"fmt"
	"html"
	"path/filepath"
	"strings"
)

// Folders names the attachment subfolders referenced by rendered content.
type Folders struct {
	Image    string
	Audio    string
	Video    string
	OpenData string
	Emoticon string
}

// DefaultFolders matches the iPhone export layout.
func DefaultFolders() Folders {
	return Folders{
		Image:    "Img",
		Audio:    "Audio",
		Video:    "Video",
		OpenData: "OpenData",
		Emoticon: "emoticon1",
	}
}

// Renderer turns a classified payload into markup-safe content. Root is the
// output folder the attachment subfolders were copied into; attachment
// lookups happen there because that is where the links will resolve.
type Renderer struct {
	Root    string
	Folders Folders
}

// NewRenderer creates a renderer over the given output root.
func NewRenderer(root string) *Renderer {
	return &Renderer{Root: root, Folders: DefaultFolders()}
}

// Render dispatches on the record's category. body is the payload with any
// speaker prefix already stripped. Handlers are pure over their inputs and
// the attachment folder contents; none returns an error or panics.
func (r *Renderer) Render(kind Kind, body string, msgID int64) string {
	switch kind {
	case KindText:
		return renderText(body)
	case KindImage:
		return r.renderImage(msgID)
	case KindAudio:
		return r.renderAudio(msgID)
	case KindVideo:
		return r.renderVideo(msgID)
	case KindEmoji:
		return r.renderEmoji(body)
	case KindLocation:
		return renderLocation(body)
	case KindLink:
		return r.renderLink(body, msgID)
	case KindSystem:
		return renderText(body)
	case KindOther:
		return renderText(body)
	}
	return unknown("an unknown message")
}

func unknown(what string) string {
	return fmt.Sprintf(`<span class="unknown">%s</span>`, html.EscapeString(what))
}

// parseFragment is the scoped parse attempt for embedded XML: it reports
// false on any syntax error instead of propagating one.
func parseFragment(s string, out any) bool {
	return xml.Unmarshal([]byte(s), out) == nil
}

// FromUser extracts the fromusername attribute carried by the first child
// element of an embedded fragment (videomsg, location). ok is false when the
// fragment is malformed or carries no such attribute.
func FromUser(payload string) (string, bool) {
	var doc struct {
		Children []struct {
			From string `xml:"fromusername,attr"`
		} `xml:",any"`
	}
	if !parseFragment(payload, &doc) {
		return "", false
	}
	if len(doc.Children) == 0 || doc.Children[0].From == "" {
		return "", false
	}
	return doc.Children[0].From, true
}

func renderText(body string) string {
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br />")
}

func (r *Renderer) renderImage(msgID int64) string {
	name := fmt.Sprintf("%s/%d", r.Folders.Image, msgID)
	tag := fmt.Sprintf(`<img src="%s.t.jpg" />`, name)
	// More than one file for the id means the full image was fetched too;
	// link the thumbnail to it.
	matches, _ := filepath.Glob(filepath.Join(r.Root, r.Folders.Image, fmt.Sprintf("%d.*", msgID)))
	if len(matches) > 1 {
		return fmt.Sprintf(`<a href="%s.jpg">%s</a>`, name, tag)
	}
	return tag
}

// renderAudio references the wav produced by the external transcoder. No
// existence check: a missing file is a playback failure, not a pipeline one.
func (r *Renderer) renderAudio(msgID int64) string {
	return fmt.Sprintf(`<audio controls><source src="%s/%d.wav" type="audio/wav">Your browser does not support the audio element</audio>`,
		r.Folders.Audio, msgID)
}

func (r *Renderer) renderVideo(msgID int64) string {
	return fmt.Sprintf(`<video width="320" height="240" controls><source src="%s/%d.mp4" type="video/mp4">Your browser does not support the video tag.</video>`,
		r.Folders.Video, msgID)
}

func (r *Renderer) renderEmoji(body string) string {
	var doc struct {
		Emoji *struct {
			MD5 string `xml:"md5,attr"`
		} `xml:"emoji"`
	}
	if !parseFragment(body, &doc) || doc.Emoji == nil || doc.Emoji.MD5 == "" {
		return unknown("an unknown emotion")
	}
	return fmt.Sprintf(`<img height="80px" src="%s/%s.t.jpg" />`, r.Folders.Emoticon, doc.Emoji.MD5)
}

func renderLocation(body string) string {
	var doc struct {
		Location *struct {
			X     string `xml:"x,attr"`
			Y     string `xml:"y,attr"`
			Scale string `xml:"scale,attr"`
			Label string `xml:"label,attr"`
		} `xml:"location"`
	}
	if !parseFragment(body, &doc) || doc.Location == nil {
		return unknown("an unknown location")
	}
	loc := doc.Location
	url := fmt.Sprintf("https://www.google.com/maps/@%s,%s,%sz", loc.X, loc.Y, loc.Scale)
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(loc.Label))
}

// appmsg subtype carrying a separately exported file.
const appSubtypeFile = "6"

func (r *Renderer) renderLink(body string, msgID int64) string {
	var doc struct {
		App *struct {
			Type  string `xml:"type"`
			Title string `xml:"title"`
			Des   string `xml:"des"`
			URL   string `xml:"url"`
		} `xml:"appmsg"`
	}
	if !parseFragment(body, &doc) || doc.App == nil {
		return unknown("an unknown link")
	}
	app := doc.App

	if app.Type == appSubtypeFile {
		matches, _ := filepath.Glob(filepath.Join(r.Root, r.Folders.OpenData, fmt.Sprintf("%d.*", msgID)))
		if len(matches) < 1 {
			return unknown(app.Title)
		}
		rel, err := filepath.Rel(r.Root, matches[0])
		if err != nil {
			rel = filepath.Base(matches[0])
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(filepath.ToSlash(rel)), html.EscapeString(app.Title))
	}

	return fmt.Sprintf(`<a href="%s"><div class="title">%s</div><div class="des">%s</div></a>`,
		html.EscapeString(app.URL), html.EscapeString(app.Title), html.EscapeString(app.Des))
}
