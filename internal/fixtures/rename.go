package fixtures

import (
	"context"
	"fmt"
	"path/filepath"
)

// rarVolumes copies the three parts of a rarrenamer test archive under
// obfuscated names.
func rarVolumes(testfile string) []Copy {
	return []Copy{
		{From: testfile + ".part01.rar", To: "abc.21"},
		{From: testfile + ".part02.rar", To: "abc.02"},
		{From: testfile + ".part03.rar", To: "abc.15"},
	}
}

func oldNamingVolumes(first, second, third string) []Copy {
	return []Copy{
		{From: "testfile3oldnam.rar", To: first},
		{From: "testfile3oldnam.r00", To: second},
		{From: "testfile3oldnam.r01", To: third},
	}
}

var parcheckerFiles = []Copy{
	{From: "testfile.dat", To: "testfile.dat"},
	{From: "testfile.nfo", To: "testfile.nfo"},
	{From: "testfile.par2", To: "testfile.par2"},
	{From: "testfile.vol00+1.PAR2", To: "testfile.vol00+1.PAR2"},
}

// copySet is a fixture directory populated from the source test data and
// guarded by the existence of its directory (byDir) or its NZB.
type copySet struct {
	name   string
	byDir  bool
	source string
	copies []Copy
	par2   bool
}

func renameCopySets() []copySet {
	sets := []copySet{}
	for _, tf := range []struct{ dir, file string }{
		{"rarrename3", "testfile3"},
		{"rarrename5", "testfile5"},
		{"rarrename3encdata", "testfile3encdata"},
		{"rarrename5encdata", "testfile5encdata"},
		{"rarrename3encnam", "testfile3encnam"},
		{"rarrename5encnam", "testfile5encnam"},
	} {
		sets = append(sets, copySet{name: tf.dir, source: "rarrenamer", copies: rarVolumes(tf.file), par2: true})
	}
	twoSets := append(rarVolumes("testfile3"),
		Copy{From: "testfile5.part01.rar", To: "abc.22"},
		Copy{From: "testfile5.part02.rar", To: "abc.03"},
		Copy{From: "testfile5.part03.rar", To: "abc.14"},
	)
	sets = append(sets,
		copySet{name: "rarrename2sets", byDir: true, source: "rarrenamer", copies: twoSets},
		copySet{name: "rarrename3oldnam", byDir: true, source: "rarrenamer", copies: oldNamingVolumes("abc.61", "abc.32", "abc.45")},
		copySet{name: "rarrename3badext", byDir: true, source: "rarrenamer", copies: oldNamingVolumes("testfile3oldnam.rar", "testfile3oldnam.r03", "testfile3oldnam.r02")},
		copySet{name: "rarrename5badext", byDir: true, source: "rarrenamer", copies: []Copy{
			{From: "testfile3.part01.rar", To: "testfile3.part01.rar"},
			{From: "testfile3.part02.rar", To: "testfile3.part0002.rar"},
			{From: "testfile3.part03.rar", To: "testfile3.part03.rar"},
		}},
		copySet{name: "rar3ignoreext", byDir: true, source: "rarrenamer", copies: []Copy{
			{From: "testfile3.part01.rar", To: "testfile3-1.cbr"},
			{From: "testfile3.part02.rar", To: "testfile3-2.cbr"},
			{From: "testfile3.part03.rar", To: "testfile3-3.cbr"},
		}},
	)
	return sets
}

// obfuscatedSet is a random 7-Zip volume set protected by par2 whose files
// are then renamed to meaningless names.
type obfuscatedSet struct {
	name    string
	sizeMB  int
	partMB  int
	renames []Rename
}

func obfuscatedSets() []obfuscatedSet {
	volumes := func(base string, targets ...string) []Rename {
		renames := make([]Rename, 0, len(targets))
		for i, target := range targets {
			renames = append(renames, Rename{From: base + ".7z." + threeDigits(i+1), To: target})
		}
		return renames
	}
	five := volumes("5mb", "abc.51", "abc.01", "abc.21", "abc.34", "abc.17", "abc.00")
	return []obfuscatedSet{
		{name: "obfuscated1", sizeMB: 5, partMB: 1, renames: five},
		{name: "obfuscated2", sizeMB: 5, partMB: 1, renames: append(append([]Rename{}, five...),
			Rename{From: "parrename.par2", To: "abc.90"},
			Rename{From: "parrename.vol0+1.par2", To: "abc.95"},
			Rename{From: "parrename.vol1+2.par2", To: "abc.91"},
			Rename{From: "parrename.vol3+2.par2", To: "abc.92"},
		)},
		{name: "obfuscated3", sizeMB: 100, partMB: 10, renames: append(
			volumes("100mb", "abc.51", "abc.01", "abc.21", "abc.34", "abc.17", "abc.60", "abc.32", "abc.35", "abc.41", "abc.50", "abc.43"),
			Rename{From: "parrename.par2", To: "abc.00"},
			Rename{From: "parrename.vol0+1.par2", To: "abc.02"},
			Rename{From: "parrename.vol1+2.par2", To: "abc.91"},
			Rename{From: "parrename.vol3+2.par2", To: "abc.92"},
		)},
	}
}

// PrepareRename builds the par-rename, rar-rename, par-join and obfuscated
// sets exercised by the rename suite.
func (p *Preparer) PrepareRename(ctx context.Context) error {
	rarDir := filepath.Join(p.testDataDir, "rarrenamer")
	parDir := filepath.Join(p.testDataDir, "parchecker")

	if !p.hasDir("parrename") {
		dir := p.path("parrename")
		copies := []Copy{
			{From: "testfile3.part01.rar", To: "testfile3.part01.rar"},
			{From: "testfile3.part02.rar", To: "testfile3.part02.rar"},
			{From: "testfile3.part03.rar", To: "testfile3.part03.rar"},
		}
		if err := CopyAll(rarDir, dir, copies); err != nil {
			return err
		}
		if err := p.tools.Par2Create(ctx, dir, "parrename.par2", 20); err != nil {
			return err
		}
		if err := RenameAll(dir, []Rename{
			{From: "testfile3.part01.rar", To: "abc.21"},
			{From: "testfile3.part02.rar", To: "abc.02"},
			{From: "testfile3.part03.rar", To: "abc.15"},
		}); err != nil {
			return err
		}
	}

	for _, set := range renameCopySets() {
		if (set.byDir && p.hasDir(set.name)) || (!set.byDir && p.hasNZB(set.name)) {
			continue
		}
		dir := p.path(set.name)
		if err := CopyAll(filepath.Join(p.testDataDir, set.source), dir, set.copies); err != nil {
			return err
		}
		if set.par2 {
			if err := p.tools.Par2Create(ctx, dir, "parrename.par2", 20); err != nil {
				return err
			}
		}
	}

	for i, name := range []string{"parjoin1", "parjoin2"} {
		if p.hasNZB(name) {
			continue
		}
		dir := p.path(name)
		if err := CopyAll(parDir, dir, parcheckerFiles); err != nil {
			return err
		}
		if _, err := SplitFile(dir, "testfile.dat", 50244); err != nil {
			return err
		}
		if i == 1 {
			if err := RenameAll(dir, splitRenames("testfile.dat", 3)); err != nil {
				return err
			}
		}
	}

	if err := p.tools.GenerateNZBs(ctx, p.dataDir, p.segmentSize); err != nil {
		return err
	}

	if !p.hasNZB("parjoin3") {
		dir := p.path("parjoin3")
		if err := p.tools.CreateTestFile(ctx, dir, 20, 1, false); err != nil {
			return err
		}
		if err := p.tools.Par2Create(ctx, dir, "parrename.par2", 100); err != nil {
			return err
		}
		if _, err := SplitFile(dir, "20mb.dat", 7*mebibyte); err != nil {
			return err
		}
		if err := RenameAll(dir, splitRenames("20mb.dat", 3)); err != nil {
			return err
		}
		if err := p.tools.GenerateNZBs(ctx, p.dataDir, mediumSegment); err != nil {
			return err
		}
	}

	if !p.hasDir("rarrename3sm") {
		dir := p.path("rarrename3sm")
		if err := CopyAll(rarDir, dir, oldNamingVolumes("abc.61", "abc.32", "abc.45")); err != nil {
			return err
		}
		if err := p.tools.Par2Create(ctx, dir, "parrename.par2", 100); err != nil {
			return err
		}
		if err := p.tools.GenerateNZBs(ctx, p.dataDir, smallSegment); err != nil {
			return err
		}
	}

	for _, set := range obfuscatedSets() {
		if p.hasNZB(set.name) {
			continue
		}
		dir := p.path(set.name)
		if err := p.tools.CreateTestFile(ctx, dir, set.sizeMB, set.partMB, true); err != nil {
			return err
		}
		if err := p.tools.Par2Create(ctx, dir, "parrename.par2", 100); err != nil {
			return err
		}
		if err := RenameAll(dir, set.renames); err != nil {
			return err
		}
		if err := p.tools.GenerateNZBs(ctx, p.dataDir, mediumSegment); err != nil {
			return err
		}
	}
	return nil
}

func splitRenames(name string, parts int) []Rename {
	renames := make([]Rename, 0, parts)
	for i := 1; i <= parts; i++ {
		renames = append(renames, Rename{From: name + "." + threeDigits(i), To: "renamed." + threeDigits(i)})
	}
	return renames
}

func threeDigits(n int) string {
	return fmt.Sprintf("%03d", n)
}
