// SPDX-License-Identifier: MIT

package pdf

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// artifactReplacer folds typographic variants PDF generators emit into the
// plain forms downstream consumers expect. Ligatures first; extractors that
// decode them as single glyphs otherwise leak them into search indexes.
var artifactReplacer = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"′", "'",
	"‚", ",",
	"„", `"`,
	"‒", "-",
	"–", "-",
	"—", "-",
	"―", "-",
	"…", "...",
	"•", "*",
	"°", " degrees ",
	"¹", "1",
	"²", "2",
	"³", "3",
	"©", "(c)",
	"®", "(R)",
	"™", "(TM)",
)

// keptSpecials are characters retained through the control-strip even when
// their Unicode category is unusual; they are valid in code and math.
const keptSpecials = "()%=[]{}#$@!?.,;:+-*/^<>&|~"

var (
	reHorizWS      = regexp.MustCompile(`[ \t]+`)
	reSpaceBeforeN = regexp.MustCompile(` +\n`)
	reSpaceAfterN  = regexp.MustCompile(`\n +`)
	reTabStart     = regexp.MustCompile(`\n\t+`)
	reTabEnd       = regexp.MustCompile(`\t+\n`)
	reTabs         = regexp.MustCompile(`\t+`)
	reManyNewlines = regexp.MustCompile(`\n{3,}`)
	rePunctSpace   = regexp.MustCompile(`\s+([.,;:!?)])`)
	reOpenParen    = regexp.MustCompile(`\(\s+`)
	rePunctGap     = regexp.MustCompile(`\s+([.,])\s+`)
	reInvisible    = regexp.MustCompile(`[\x{200b}\x{200c}\x{200d}\x{feff}\x{200e}\x{200f}]`)
	reHyphenBreak  = regexp.MustCompile(`(\w)-\s*\n\s*(\w)`)
)

// CleanText normalizes raw PDF-extracted text: Unicode NFKC, ligature and
// quote folding, control-character strip, whitespace consolidation (at most
// two consecutive newlines), punctuation spacing and de-hyphenation across
// line breaks.
func CleanText(text string) string {
	if text == "" {
		return text
	}

	text = norm.NFKC.String(text)
	text = artifactReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.In(r, unicode.C) || r == '\n' || r == '\t' || r == ' ' || strings.ContainsRune(keptSpecials, r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = reHorizWS.ReplaceAllString(text, " ")
	text = reSpaceBeforeN.ReplaceAllString(text, "\n")
	text = reSpaceAfterN.ReplaceAllString(text, "\n")
	text = reTabStart.ReplaceAllString(text, "\n")
	text = reTabEnd.ReplaceAllString(text, "\n")
	text = reTabs.ReplaceAllString(text, " ")

	text = reManyNewlines.ReplaceAllString(text, "\n\n")

	text = rePunctSpace.ReplaceAllString(text, "$1")
	text = reOpenParen.ReplaceAllString(text, "(")
	text = rePunctGap.ReplaceAllString(text, "$1 ")

	text = reInvisible.ReplaceAllString(text, "")
	text = reHyphenBreak.ReplaceAllString(text, "$1$2")

	return strings.TrimSpace(text)
}
