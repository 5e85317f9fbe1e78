// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
render.go - Canvas event composition from TP occurrences

Title, location, description and the hidden metadata block are rendered
here, and the metadata block is recovered from existing Canvas events. The
two zero-width spaces appended to every title mark an event as authored by
this engine; hand-made calendar entries never carry them.
*/

package models

import (
	"crypto/md5" //nolint:gosec // curriculum fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// titleMarker is appended twice to every engine-authored event title.
const titleMarker = "\u200b"

// maxTitleRunes caps the rendered title, measured in code points so that a
// multi-byte character is never split. Canvas truncates at 255; two marker
// runes must survive.
const maxTitleRunes = 253

// EventTitle renders the Canvas event title for an occurrence:
// "CODE (activity title) summary", or "CODE summary" when the occurrence
// has no title, truncated and signed with the zero-width markers.
func EventTitle(courseCode string, ev *TPEvent) string {
	var title string
	if ev.Title != "" {
		title = fmt.Sprintf("%s (%s) %s", courseCode, ev.Title, ev.Summary)
	} else {
		title = fmt.Sprintf("%s %s", courseCode, ev.Summary)
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title + titleMarker + titleMarker
}

// EventLocation renders the comma-joined room list, "BUILDING ROOM" per room.
func EventLocation(ev *TPEvent) string {
	if len(ev.Rooms) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ev.Rooms))
	for _, room := range ev.Rooms {
		parts = append(parts, room.BuildingID+" "+room.RoomID)
	}
	return strings.Join(parts, ", ")
}

// StaffNames collects the sorted display names of all staff on an
// occurrence: internal staff as "First Last", external staff as
// "Name (external) URL".
func StaffNames(ev *TPEvent) []string {
	names := make([]string, 0, len(ev.Staff)+len(ev.ExternalStaff))
	for _, s := range ev.Staff {
		names = append(names, s.FirstName+" "+s.LastName)
	}
	for _, s := range ev.ExternalStaff {
		names = append(names, s.Name+" (external) "+s.URL)
	}
	sort.Strings(names)
	return names
}

// Recording reports whether any tag marks the occurrence for lecture
// recording. The match is a case-insensitive substring test.
func Recording(ev *TPEvent) bool {
	for _, tag := range ev.Tags {
		if strings.Contains(strings.ToLower(tag), "mediasite") {
			return true
		}
	}
	return false
}

// CurriculumHash fingerprints the curriculum text. Equality compares
// hashes, never the raw text.
func CurriculumHash(curriculum string) string {
	sum := md5.Sum([]byte(curriculum)) //nolint:gosec // fingerprint only
	return hex.EncodeToString(sum[:])
}

// DescriptionMeta is the hidden metadata block embedded in every
// engine-authored event description. The match pass compares against it
// instead of re-parsing the human-readable description.
type DescriptionMeta struct {
	Recording bool     `json:"recording"`
	Staff     []string `json:"staff"`
	Curr      string   `json:"curr"`
}

// MetaFor builds the metadata block for an occurrence.
func MetaFor(ev *TPEvent) DescriptionMeta {
	return DescriptionMeta{
		Recording: Recording(ev),
		Staff:     StaffNames(ev),
		Curr:      CurriculumHash(ev.Curriculum),
	}
}

// EventDescription renders the HTML description for an occurrence: staff
// list, curriculum, a link back to TP, and the hidden metadata span.
func EventDescription(ev *TPEvent) (string, error) {
	meta, err := json.Marshal(MetaFor(ev))
	if err != nil {
		return "", fmt.Errorf("marshal description meta: %w", err)
	}

	var b strings.Builder
	if names := StaffNames(ev); len(names) > 0 {
		for _, name := range names {
			b.WriteString(html.EscapeString(name))
			b.WriteString("<br>")
		}
	}
	if ev.Curriculum != "" {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(ev.Curriculum))
		b.WriteString("</p>")
	}
	if ev.EditURL != "" {
		fmt.Fprintf(&b, `<a href="%s">Details in TP</a>`, ev.EditURL)
	}
	fmt.Fprintf(&b, `<span id="description-meta" style="display: none">%s</span>`, meta)
	return b.String(), nil
}

// metaRe locates the hidden metadata span inside an event description.
var metaRe = regexp.MustCompile(`<span id="description-meta"[^>]*>(.*?)</span>`)

// ExtractMeta recovers the metadata block from an event description.
// Events without a parseable block return ok=false and can never match an
// occurrence.
func ExtractMeta(description string) (DescriptionMeta, bool) {
	match := metaRe.FindStringSubmatch(description)
	if match == nil {
		return DescriptionMeta{}, false
	}
	var meta DescriptionMeta
	if err := json.Unmarshal([]byte(html.UnescapeString(match[1])), &meta); err != nil {
		return DescriptionMeta{}, false
	}
	return meta, true
}
