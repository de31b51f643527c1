//go:build functional

package unpack_test

import (
	"testing"

	"nzbharness/internal/harnesstest"
)

func TestUnpack(t *testing.T) {
	cases := []struct {
		nzb  string
		want string
	}{
		// par2 was created before the volume was damaged, so it repairs it.
		{nzb: "unpack-damaged.nzb", want: "SUCCESS/UNPACK"},
		// par2 describes the damaged volume and cannot restore the original.
		{nzb: "unpackcrc-par.nzb", want: "FAILURE/UNPACK"},
		{nzb: "unpackcrc-nopar.nzb", want: "FAILURE/UNPACK"},
	}
	for _, tc := range cases {
		t.Run(tc.nzb, func(t *testing.T) {
			s := harnesstest.Session(t)
			harnesstest.ExpectStatus(t, harnesstest.Download(t, s, tc.nzb, true), tc.want)
		})
	}
}
