package cmd

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/cohort/internal/errors"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     string
		internal bool
	}{
		{
			name: "nil",
			err:  nil,
			want: "",
		},
		{
			name: "input error",
			err:  errors.NewInputError("table has no header row", errors.ErrMissingColumn),
			want: "Error: input error: table has no header row",
		},
		{
			name: "plain error",
			err:  errors.New(`unknown command "frobnicate"`),
			want: `Error: unknown command "frobnicate"`,
		},
		{
			name:     "reconciliation error",
			err:      errors.NewReconciliationError("groups", "resources", 3, 2),
			want:     "Internal error: reconciliation error [pipeline=groups]: resources: expected 3, accounted 2",
			internal: true,
		},
		{
			name:     "wrapped reconciliation error",
			err:      errors.Wrap(errors.NewReconciliationError("clusters", "components", 5, 4), "analysis failed"),
			want:     "Internal error: analysis failed: reconciliation error [pipeline=clusters]",
			internal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorMessage(tt.err)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("ErrorMessage() = %q, want prefix %q", got, tt.want)
			}
			if hasHint := strings.Contains(got, "please report it"); hasHint != tt.internal {
				t.Errorf("ErrorMessage() report hint = %v, want %v", hasHint, tt.internal)
			}
		})
	}
}
