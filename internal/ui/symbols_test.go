package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLines(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		symbol string
	}{
		{name: "success", render: Success, symbol: SymbolSuccess},
		{name: "failure", render: Failure, symbol: SymbolFail},
		{name: "warning", render: Warning, symbol: SymbolWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.render("Created .esdbtop.yaml")
			assert.Contains(t, out, tt.symbol)
			assert.Contains(t, out, " Created .esdbtop.yaml")
		})
	}
}
