package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: ""},
		{args: []string{"serve"}, want: ""},
		{args: []string{"-c", "a.yml", "run"}, want: "a.yml"},
		{args: []string{"run", "--config", "b.yml"}, want: "b.yml"},
		{args: []string{"serve", "--config=c.yml"}, want: "c.yml"},
		{args: []string{"run", "-c=d.yml"}, want: "d.yml"},
		{args: []string{"run", "-c"}, want: ""},
		{args: []string{"run", "--", "-c", "e.yml"}, want: ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, configPath(tt.args), "args: %v", tt.args)
	}
}
