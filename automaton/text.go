package automaton

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
)

// Text renders the canonical textual grammar format:
//
//	finals: s1,s2,...
//	terminals: l1,l2,...
//	nonterminals: q1,q2,...
//	dst,letter[,arg1,arg2,...]
//	...
//
// with rule lines sorted lexicographically.
func (d *DFTA[State, Letter]) Text(stateStr func(State) string, letterStr func(Letter) string) string {
	states := d.States()
	stateNames := make([]string, 0, len(states))
	for s := range states {
		stateNames = append(stateNames, stateStr(s))
	}
	sort.Strings(stateNames)

	alphabet := d.Alphabet()
	letterNames := make([]string, 0, len(alphabet))
	for l := range alphabet {
		letterNames = append(letterNames, letterStr(l))
	}
	sort.Strings(letterNames)

	finalNames := make([]string, 0, len(d.finals))
	for f := range d.finals {
		finalNames = append(finalNames, stateStr(f))
	}
	sort.Strings(finalNames)

	var b strings.Builder
	fmt.Fprintf(&b, "finals: %s\n", strings.Join(finalNames, ","))
	fmt.Fprintf(&b, "terminals: %s\n", strings.Join(letterNames, ","))
	fmt.Fprintf(&b, "nonterminals: %s\n", strings.Join(stateNames, ","))

	lines := make([]string, 0, len(d.rules))
	for _, r := range d.rules {
		parts := []string{stateStr(r.Dst), letterStr(r.Letter)}
		for _, a := range r.Args {
			parts = append(parts, stateStr(a))
		}
		lines = append(lines, strings.Join(parts, ","))
	}
	sort.Strings(lines)
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// ParseText reverses Text, reconstructing a string-labeled DFTA. The finals
// header sets the final states; the terminals and nonterminals headers are
// informational, and the state and alphabet sets are recomputed from the
// rule lines themselves.
func ParseText(text string) (*DFTA[string, string], []string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var finals []string
	var rules []Transition[string, string]
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "finals:"):
			finals = splitNonEmpty(strings.TrimPrefix(line, "finals:"))
		case strings.HasPrefix(line, "terminals:"):
			// recomputed from rules; header kept only for human inspection.
		case strings.HasPrefix(line, "nonterminals:"):
			// recomputed from rules; header kept only for human inspection.
		default:
			fields := strings.Split(line, ",")
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("automaton: malformed rule line %d: %q", lineNo, line)
			}
			dst := strings.TrimSpace(fields[0])
			letter := strings.TrimSpace(fields[1])
			args := make([]string, 0, len(fields)-2)
			for _, f := range fields[2:] {
				args = append(args, strings.TrimSpace(f))
			}
			rules = append(rules, Transition[string, string]{Letter: letter, Args: args, Dst: dst})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return New(rules, finals), finals, nil
}

func splitNonEmpty(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
