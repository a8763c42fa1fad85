// SPDX-License-Identifier: MIT

package pdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCleanTextLigaturesAndQuotes(t *testing.T) {
	in := "The ﬁrst ﬂight oﬀered “quoted” text and ‘apostrophes’."
	out := CleanText(in)
	assert.Equal(t, `The first flight offered "quoted" text and 'apostrophes'.`, out)
}

func TestCleanTextDashesAndSymbols(t *testing.T) {
	in := "pages 3–7 — see © 2024, ® brand • item"
	out := CleanText(in)
	assert.Equal(t, "pages 3-7 - see (c) 2024, (R) brand * item", out)
}

func TestCleanTextStripsControlCharacters(t *testing.T) {
	out := CleanText("a\x00b\x07c keeps (x)=[y]{z} #tag")
	assert.Equal(t, "abc keeps (x)=[y]{z} #tag", out)
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	out := CleanText("a  \t b  \n\n\n\nc \nd")
	assert.Equal(t, "a b\n\nc\nd", out)
}

func TestCleanTextPunctuationSpacing(t *testing.T) {
	assert.Equal(t, "Hello, world.", CleanText("Hello , world ."))
	assert.Equal(t, "(spaced)", CleanText("( spaced )"))
}

func TestCleanTextRemovesZeroWidth(t *testing.T) {
	assert.Equal(t, "ab", CleanText("a​b"))
	assert.Equal(t, "cd", CleanText("﻿cd"))
}

func TestCleanTextDehyphenatesLineBreaks(t *testing.T) {
	out := CleanText("The transfor-\nmation succeeded.")
	assert.Equal(t, "The transformation succeeded.", out)
}

func TestCleanTextNormalizesCompatibilityForms(t *testing.T) {
	// NFKC folds superscripts and the ellipsis before the replacer runs.
	assert.Equal(t, "x2 and more...", CleanText("x² and more…"))
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("   \n\t  "))
}

func TestCleanTextWholePage(t *testing.T) {
	in := "Abstract\n\n\n\n" +
		"We present an eﬃcient method for text extrac-\n" +
		"tion of “quoted” content , with 12 % gains.\n\n\n" +
		"1  Introduction\n" +
		"Pipelines rely on OCR…  \n" +
		"End.​\n"

	want := "Abstract\n\n" +
		"We present an efficient method for text extraction of \"quoted\" content, with 12 % gains.\n\n" +
		"1 Introduction\n" +
		"Pipelines rely on OCR...\n" +
		"End."

	if diff := cmp.Diff(want, CleanText(in)); diff != "" {
		t.Errorf("cleaned page mismatch (-want +got):\n%s", diff)
	}
}
