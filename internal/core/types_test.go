package core_test

import (
	"testing"

	"github.com/tgross03/backpy/internal/core"
)

func TestParseRestoreMode(t *testing.T) {
	cases := []struct {
		name    string
		want    core.RestoreMode
		wantErr bool
	}{
		{name: "OVERWRITE", want: core.RestoreOverwrite},
		{name: "overwrite", want: core.RestoreOverwrite},
		{name: "clean", want: core.RestoreClean},
		{name: "Replace", want: core.RestoreReplace},
		{name: "merge", want: core.RestoreMerge},
		{name: "append", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := core.ParseRestoreMode(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseRestoreMode(%q) succeeded, want error", tc.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRestoreMode(%q) error = %v", tc.name, err)
			}
			if got != tc.want {
				t.Errorf("ParseRestoreMode(%q) = %s, want %s", tc.name, got, tc.want)
			}
		})
	}
}
