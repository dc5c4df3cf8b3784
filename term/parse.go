package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the S-expression form `(head arg1 arg2 ...)` with variables
// written `var0`, `var1`, ... and primitives as bare names.
func Parse(program string) (Program, error) {
	p, rest, err := parse(strings.TrimSpace(program))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("term: unexpected trailing input %q", rest)
	}
	return p, nil
}

func parse(program string) (Program, string, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil, "", fmt.Errorf("term: unexpected end of input")
	}
	if program[0] == '(' {
		rest := program[1:]
		sp := strings.IndexAny(rest, " \t")
		if sp < 0 {
			return nil, "", fmt.Errorf("term: malformed application %q", program)
		}
		head, _, err := parse(rest[:sp])
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimSpace(rest[sp+1:])
		var args []Program
		for len(rest) > 0 && rest[0] != ')' {
			var arg Program
			arg, rest, err = parse(rest)
			if err != nil {
				return nil, "", err
			}
			args = append(args, arg)
			rest = strings.TrimLeft(rest, " \t")
		}
		rest = strings.TrimPrefix(rest, ")")
		if len(args) == 0 {
			return nil, "", fmt.Errorf("term: application %q has no arguments", program)
		}
		return NewApplication(head, args), rest, nil
	}

	end := len(program)
	depth := 0
	for i, ch := range program {
		switch ch {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				end = i
				goto done
			}
			depth--
		case ' ', '\t':
			if depth == 0 {
				end = i
				goto done
			}
		}
	}
done:
	token := program[:end]
	rest := program[end:]
	if strings.HasPrefix(token, "var") {
		n, err := strconv.Atoi(token[len("var"):])
		if err != nil {
			return nil, "", fmt.Errorf("term: invalid variable token %q: %w", token, err)
		}
		return Variable{No: n}, rest, nil
	}
	return Primitive{Name: token}, rest, nil
}
