//go:build functional

package rename_test

import (
	"regexp"
	"testing"

	"nzbharness/internal/harnesstest"
)

// optionSet is one daemon rename configuration the obfuscated sets are
// downloaded under.
type optionSet struct {
	name    string
	options []string
	// damaged enables the missing-segment variants and obfuscated3.
	damaged bool
	// firstTwoDamaged is the outcome when the first segments of both the
	// first volume and the par2 index are missing.
	firstTwoDamaged string
}

var optionSets = []optionSet{
	{
		name:    "par-rename",
		options: []string{"ParRename=yes", "RarRename=yes", "UnpackIgnoreExt=.cbr", "DirectRename=no"},
	},
	{
		name:            "direct-rename-only",
		options:         []string{"ParRename=no", "RarRename=no", "ParCheck=auto", "DirectRename=yes"},
		damaged:         true,
		firstTwoDamaged: "WARNING/HEALTH",
	},
	{
		name:            "direct-rename",
		options:         []string{"ParRename=yes", "RarRename=yes", "ParCheck=auto", "DirectRename=yes"},
		damaged:         true,
		firstTwoDamaged: "SUCCESS/UNPACK",
	},
}

// markMissing appends !0 to every segment matching pattern so no server has it.
func markMissing(t *testing.T, content []byte, pattern string) []byte {
	t.Helper()
	re := regexp.MustCompile(pattern)
	if !re.Match(content) {
		t.Fatalf("pattern %q not found in payload", pattern)
	}
	return re.ReplaceAll(content, []byte("${0}!0"))
}

func TestObfuscated(t *testing.T) {
	for _, set := range optionSets {
		t.Run(set.name, func(t *testing.T) {
			sets := []string{"obfuscated1.nzb", "obfuscated2.nzb"}
			if set.damaged {
				sets = append(sets, "obfuscated3.nzb")
			}
			for _, nzb := range sets {
				t.Run(nzb, func(t *testing.T) {
					s := harnesstest.Session(t, set.options...)
					harnesstest.ExpectStatus(t, harnesstest.Download(t, s, nzb, true), "SUCCESS/UNPACK")
				})
			}

			t.Run("changed-names", func(t *testing.T) {
				s := harnesstest.Session(t, set.options...)
				record := harnesstest.DownloadEdited(t, s, "obfuscated1.nzb", "obfuscated1-changed.nzb", true,
					";5mb.7z", ";abc",
					";parrename", ";def",
					".par2&", "&",
				)
				harnesstest.ExpectStatus(t, record, "SUCCESS/UNPACK")
			})

			if !set.damaged {
				return
			}
			damaged := []struct {
				name     string
				source   string
				patterns []string
				want     string
			}{
				{name: "obfuscated1-damaged.nzb", source: "obfuscated1.nzb", patterns: []string{`abc\.01\?4=300000:100000`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated1-damaged-first.nzb", source: "obfuscated1.nzb", patterns: []string{`abc\.01\?1=0:100000`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated1-damaged-first2.nzb", source: "obfuscated1.nzb", patterns: []string{`abc\.01\?1=0:100000`, `abc\.00\?1=0:\d+`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated1-damaged-par.nzb", source: "obfuscated1.nzb", patterns: []string{`parrename\.vol0\+1\.par2\?1=0:\d+`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated3-damaged.nzb", source: "obfuscated3.nzb", patterns: []string{`abc\.01\?17=1600000:100000`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated3-damaged-first.nzb", source: "obfuscated3.nzb", patterns: []string{`abc\.01\?11=0:100000`}, want: "SUCCESS/UNPACK"},
				{name: "obfuscated3-damaged-first2.nzb", source: "obfuscated3.nzb", patterns: []string{`abc\.01\?11=0:100000`, `abc\.00\?1=0:\d+`}, want: set.firstTwoDamaged},
			}
			for _, tc := range damaged {
				t.Run(tc.name, func(t *testing.T) {
					s := harnesstest.Session(t, set.options...)
					content := harnesstest.LoadNZB(t, s, tc.source)
					for _, pattern := range tc.patterns {
						content = markMissing(t, content, pattern)
					}
					harnesstest.ExpectStatus(t, harnesstest.DownloadContent(t, s, tc.name, content, true), tc.want)
				})
			}
		})
	}
}
