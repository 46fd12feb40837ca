package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txplain/txplain/client"
	"github.com/txplain/txplain/service/explain"
)

func testAnalysis() *client.Analysis {
	return &client.Analysis{
		RequestID: "req-1",
		Result: &explain.Result{
			Signature:      "sig123",
			Status:         "Confirmed",
			Classification: "Token Swap",
			Fee:            explain.Fee{Lamports: 5000, SOL: "0.000005000", USD: "$0.0010"},
			Transfers: []explain.Transfer{
				{Symbol: "USDC", Amount: "-1.000000", USDValue: "$1.00"},
				{Symbol: "Bonk", Amount: "+50000.000000", USDValue: "$1.00"},
			},
		},
		Metadata: client.ServiceInfo{Service: "txplain", Version: "1.0.0", Provider: "openai"},
	}
}

func TestApplyJQFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    string
		want      []interface{}
		expectErr bool
	}{
		{
			name:   "scalar projection",
			filter: ".result.fee.usd",
			want:   []interface{}{"$0.0010"},
		},
		{
			name:   "classification",
			filter: ".result.classification",
			want:   []interface{}{"Token Swap"},
		},
		{
			name:   "iterate transfers",
			filter: ".result.transfers[].symbol",
			want:   []interface{}{"USDC", "Bonk"},
		},
		{
			name:   "count transfers",
			filter: ".result.transfers | length",
			want:   []interface{}{2},
		},
		{
			name:   "missing field yields null",
			filter: ".result.nonexistent",
			want:   []interface{}{nil},
		},
		{
			name:      "unparseable filter",
			filter:    ".result.[",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := applyJQFilter(tt.filter, testAnalysis())
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, results, len(tt.want))
			for i, want := range tt.want {
				if n, ok := want.(int); ok {
					// gojq returns numbers as int when they fit
					assert.EqualValues(t, n, results[i])
					continue
				}
				assert.Equal(t, want, results[i])
			}
		})
	}
}
