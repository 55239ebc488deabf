package main

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/stepantubanov/parcheck"
)

func TestRenderTrace(t *testing.T) {
	trace, err := parcheck.ParseTrace("0:writer/lock\n1:reader/read\n0:writer/unlock")
	gt.NoError(t, err)

	var buf strings.Builder
	gt.NoError(t, renderTrace(&buf, trace))

	out := buf.String()
	gt.True(t, strings.Contains(out, "STEP"))
	gt.True(t, strings.Contains(out, "0:writer"))
	gt.True(t, strings.Contains(out, "1:reader"))
	gt.True(t, strings.Contains(out, "lock -> unlock"))
	gt.True(t, strings.Contains(out, "read"))
}

func TestRenderTraceEmpty(t *testing.T) {
	trace, err := parcheck.ParseTrace("")
	gt.NoError(t, err)

	var buf strings.Builder
	gt.NoError(t, renderTrace(&buf, trace))
	gt.True(t, strings.Contains(buf.String(), "STEP"))
}
