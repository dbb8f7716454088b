package diag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/solidframe-go/diag"
)

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := diag.NewRegistry()
	r.Set("accepts", 3)

	values, _ := r.Snapshot()
	values["accepts"] = 999

	values2, _ := r.Snapshot()
	require.Equal(t, 3, values2["accepts"], "Snapshot must return an independent copy")
}

func TestProbesDumpEvaluatesEachProbe(t *testing.T) {
	p := diag.NewProbes()
	calls := 0
	p.Register("calls", func() any {
		calls++
		return calls
	})

	out := p.Dump()
	require.Equal(t, 1, out["calls"])

	out = p.Dump()
	require.Equal(t, 2, out["calls"], "a second Dump must re-evaluate the probe")
}
