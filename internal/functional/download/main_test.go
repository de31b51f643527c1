//go:build functional

package download_test

import (
	"testing"

	"nzbharness/internal/fixtures"
	"nzbharness/internal/harnesstest"
)

func TestMain(m *testing.M) {
	harnesstest.Main(m, fixtures.SuiteDownload)
}
