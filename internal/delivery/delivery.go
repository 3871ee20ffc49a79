package delivery

import (
	"fmt"
	"strings"
)

// MaxInline is the largest content length delivered as a plain message.
// Discord rejects messages over 2000 characters; the margin leaves room for
// framing text around the content.
const MaxInline = 1950

// shortPrimaryLimit is the longest primary content still shown verbatim in
// the intro line of a file delivery.
const shortPrimaryLimit = 300

// Placeholder is sent instead of an empty message body, which the platform
// rejects.
const Placeholder = "No information to display."

// Plan describes how a reply should be delivered: inline text, and
// optionally a file attachment when the content exceeds MaxInline.
type Plan struct {
	Inline      string
	FileName    string
	FileContent string
}

// HasFile reports whether the plan includes an attachment.
func (p Plan) HasFile() bool {
	return p.FileName != ""
}

// Build combines primary and secondary content (blank-line separated when
// both are present) and decides between inline and file delivery. Oversized
// content goes into a file named filename, with a short intro message:
// the primary content itself when it is short, otherwise a generic pointer
// to the attachment.
func Build(primary, secondary, filename string) Plan {
	full := primary
	if secondary != "" {
		if primary != "" && !strings.HasSuffix(full, "\n\n") {
			if !strings.HasSuffix(full, "\n") {
				full += "\n"
			}
			full += "\n"
		}
		full += secondary
	}

	if len(full) > MaxInline {
		intro := fmt.Sprintf("Output too long, attached as `%s`.", filename)
		if primary != "" && len(primary) < shortPrimaryLimit {
			intro = fmt.Sprintf("%s\n... (additional details in attached file `%s`)", primary, filename)
		} else if primary == "" && secondary != "" {
			intro = fmt.Sprintf("Details attached as `%s`.", filename)
		}
		return Plan{Inline: intro, FileName: filename, FileContent: full}
	}

	if strings.TrimSpace(full) == "" {
		return Plan{Inline: Placeholder}
	}
	return Plan{Inline: full}
}
