// Package harnesstest plugs the harness into go test.
//
// A functional suite calls Main from its TestMain: the configuration is
// loaded, required binaries are verified (a missing one aborts the run with
// exit code 1), the run lock is taken so concurrent test binaries on the same
// directories queue up, the suite fixtures are prepared and the shared
// simulation service is started. Tests then call Session to get a ready
// daemon that is torn down when the test ends; the test's result is recorded
// in the run's failure tracker before teardown so a failure keeps the work
// directory. Tests without a session call Track to be counted.
package harnesstest
