package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/studyplan/internal/domain/model"
	"github.com/okian/studyplan/internal/domain/types"
)

// RenderText writes the optimal plan in the classic layout:
//
//	Optimized Study Plan (in hours per subject):
//	Physics: 0.0 hours
//	...
//	Total Study Effectiveness: 32.0
func RenderText(w io.Writer, v types.PlanView) error {
	var b strings.Builder
	b.WriteString("Optimized Study Plan (in hours per subject):\n")
	for _, s := range model.Subjects() {
		fmt.Fprintf(&b, "%s: %s hours\n", s, formatNumber(v.Hours[s.String()]))
	}
	eff := 0.0
	if v.Effectiveness != nil {
		eff = *v.Effectiveness
	}
	fmt.Fprintf(&b, "Total Study Effectiveness: %s\n", formatNumber(eff))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the view as indented JSON.
func RenderJSON(w io.Writer, v types.PlanView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber prints v exactly as the solver produced it. Integral values
// keep a decimal point, so 4 prints as "4.0".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".nN") {
		s += ".0"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
