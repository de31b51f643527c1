//go:build functional

package editqueue_test

import (
	"testing"

	"nzbharness/internal/harnesstest"
)

func TestMain(m *testing.M) {
	harnesstest.Main(m)
}
