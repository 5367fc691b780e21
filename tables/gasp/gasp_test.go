package gasp

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/otforge/diag"
	"github.com/npillmayer/otforge/otbin"
	"github.com/npillmayer/otforge/tables"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type GaspTestEnviron struct {
	suite.Suite
	fixture []byte // version 1, three ranges, well formed
}

// listen for 'go test' command --> run test methods
func TestGaspTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otforge.tables")
	defer teardown()
	suite.Run(t, new(GaspTestEnviron))
}

func (env *GaspTestEnviron) SetupSuite() {
	env.fixture = []byte{
		0x00, 0x01, // version
		0x00, 0x03, // numRanges
		0x00, 0x08, 0x00, 0x02, // up to 8 ppem: DoGray
		0x00, 0x10, 0x00, 0x01, // up to 16 ppem: GridFit
		0xFF, 0xFF, 0x00, 0x03, // everything else: GridFit|DoGray
	}
}

// --- Tests -----------------------------------------------------------------

func (env *GaspTestEnviron) TestReadWellFormed() {
	tbl, err := Read(otbin.NewCursor(env.fixture))
	env.Require().NoError(err)
	env.Equal(uint16(1), tbl.Version)
	env.Require().Len(tbl.Ranges, 3)
	env.Equal(uint16(8), tbl.Ranges[0].MaxPPEM)
	env.Equal(DoGray, tbl.Ranges[0].Behavior)
	env.Equal(uint16(0xFFFF), tbl.Ranges[2].MaxPPEM)
}

func (env *GaspTestEnviron) TestRoundTrip() {
	tbl, err := Read(otbin.NewCursor(env.fixture))
	env.Require().NoError(err)
	//
	w := otbin.NewWriter()
	err = tbl.Write(w, tables.NewContext())
	env.Require().NoError(err)
	b, err := w.Finalize()
	env.Require().NoError(err)
	env.Equal(env.fixture, b, "expected byte-exact reproduction")
	//
	again, err := Read(otbin.NewCursor(b))
	env.Require().NoError(err)
	if diff := cmp.Diff(tbl, again); diff != "" {
		env.Failf("round trip changed the table", "diff (-before +after):\n%s", diff)
	}
}

func (env *GaspTestEnviron) TestWriteSortsRanges() {
	tbl := &Table{
		Version: 1,
		Ranges: []Range{
			{MaxPPEM: 0xFFFF, Behavior: GridFit | DoGray},
			{MaxPPEM: 8, Behavior: DoGray},
			{MaxPPEM: 16, Behavior: GridFit},
		},
	}
	w := otbin.NewWriter()
	env.Require().NoError(tbl.Write(w, tables.NewContext()))
	b, err := w.Finalize()
	env.Require().NoError(err)
	env.Equal(env.fixture, b, "expected ranges sorted ascending on output")
}

func (env *GaspTestEnviron) TestReadTruncated() {
	// the count field always promises three ranges, so every proper
	// prefix is short
	for cut := 1; cut < len(env.fixture); cut++ {
		_, err := Read(otbin.NewCursor(env.fixture[:cut]))
		env.True(errors.Is(err, otbin.ErrTruncatedInput),
			"expected ErrTruncatedInput for %d-byte prefix, got %v", cut, err)
	}
}

func (env *GaspTestEnviron) TestValidatedWellFormed() {
	c := diag.NewCollector()
	tbl, err := ReadValidated(otbin.NewCursor(env.fixture), c)
	env.Require().NoError(err)
	env.Require().NotNil(tbl)
	env.False(c.HasErrors())
	//
	strict, err := Read(otbin.NewCursor(env.fixture))
	env.Require().NoError(err)
	if diff := cmp.Diff(strict, tbl); diff != "" {
		env.Failf("strict and validated paths disagree", "diff:\n%s", diff)
	}
}

func (env *GaspTestEnviron) TestValidatedUnknownVersion() {
	data := append([]byte{}, env.fixture...)
	data[1] = 9 // version 9
	c := diag.NewCollector()
	tbl, err := ReadValidated(otbin.NewCursor(data), c)
	env.Require().NoError(err, "unknown version is recoverable")
	env.Equal(uint16(9), tbl.Version)
	env.Equal(1, c.Count(diag.Warning), "expected exactly the E1003 warning")
	env.Equal("E1003", warningCode(c))
}

func (env *GaspTestEnviron) TestValidatedUnsortedIsFatal() {
	data := []byte{
		0x00, 0x01,
		0x00, 0x02,
		0x00, 0x10, 0x00, 0x01,
		0x00, 0x08, 0x00, 0x02, // out of order
	}
	c := diag.NewCollector()
	_, err := ReadValidated(otbin.NewCursor(data), c)
	env.Error(err)
	env.True(c.HasErrors())
	env.Equal("E1002", errorCode(c))
}

func (env *GaspTestEnviron) TestValidatedMissingSentinelIsFatal() {
	data := []byte{
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x10, 0x00, 0x01, // no 0xFFFF range
	}
	c := diag.NewCollector()
	_, err := ReadValidated(otbin.NewCursor(data), c)
	env.Error(err)
	env.Equal("E1001", errorCode(c))
}

func (env *GaspTestEnviron) TestValidatedZeroRanges() {
	data := []byte{0x00, 0x01, 0x00, 0x00}
	c := diag.NewCollector()
	tbl, err := ReadValidated(otbin.NewCursor(data), c)
	env.Require().NoError(err, "zero ranges is odd but recoverable")
	env.Empty(tbl.Ranges)
	env.Equal(1, c.Count(diag.Warning))
}

func (env *GaspTestEnviron) TestValidatedTruncatedIsFatal() {
	c := diag.NewCollector()
	_, err := ReadValidated(otbin.NewCursor(env.fixture[:6]), c)
	env.Error(err)
	env.True(errors.Is(err, otbin.ErrTruncatedInput))
	env.True(c.HasErrors())
}

// --- Helpers ---------------------------------------------------------------

func warningCode(c *diag.Collector) string {
	for _, ev := range c.Events() {
		if ev.Level == diag.Warning {
			return ev.Code
		}
	}
	return ""
}

func errorCode(c *diag.Collector) string {
	for _, ev := range c.Events() {
		if ev.Level == diag.Error {
			return ev.Code
		}
	}
	return ""
}
