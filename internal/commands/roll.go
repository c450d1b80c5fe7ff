package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

const (
	maxDice  = 100
	maxSides = 1000
)

var (
	rollPattern = regexp.MustCompile(`(?i)^roll\s+(?P<formula>[\dd+\-*/ ]+)$`)
	tokenRegex  = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex   = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
	validOps    = map[string]bool{"+": true, "-": true, "*": true, "/": true}

	ErrEmptyFormula   = errors.New("can't parse your formula")
	ErrDivisionByZero = errors.New("division by zero")
	ErrMissingOperand = errors.New("operator without left operand")
)

// Intn returns a number in [0, n).
type Intn func(n int) int

// RollResult is an evaluated dice formula.
type RollResult struct {
	Formula     string
	Calculation string
	Total       int
}

type term struct {
	value int
	desc  string
	op    string
}

// Roll rolls dice formulas like `roll 2d6+1d4*2-3`. A nil intn uses math/rand.
func Roll(intn Intn) cmd.Command {
	if intn == nil {
		intn = rand.Intn
	}
	return bot.MustCommand("roll", rollPattern, "Rolls dice with formulas like `2d6+1d4*2-3`.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			res, err := EvalDice(c.Param("formula"), intn)
			if err != nil {
				return c.Reply(ctx, fmt.Sprintf("Failed to roll: %v", err))
			}
			return c.Reply(ctx, fmt.Sprintf("🎲 `%s`: %s = *%d*", res.Formula, res.Calculation, res.Total))
		}))
}

// EvalDice evaluates formula. Multiplication and division bind tighter than
// addition and subtraction; everything is integer arithmetic.
func EvalDice(formula string, intn Intn) (RollResult, error) {
	formula = strings.ReplaceAll(formula, " ", "")
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 {
		return RollResult{}, ErrEmptyFormula
	}

	var terms []term
	op := "+"
	for _, tok := range tokens {
		if validOps[tok] {
			op = tok
			continue
		}
		val, desc, err := evalToken(tok, intn)
		if err != nil {
			return RollResult{}, fmt.Errorf("`%s`: %w", tok, err)
		}
		terms = append(terms, term{value: val, desc: desc, op: op})
		op = "+"
	}

	// * and / first
	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		if len(merged) == 0 {
			return RollResult{}, ErrMissingOperand
		}
		prev := merged[len(merged)-1]
		merged = merged[:len(merged)-1]

		v := prev.value * t.value
		if t.op == "/" {
			if t.value == 0 {
				return RollResult{}, ErrDivisionByZero
			}
			v = prev.value / t.value
		}
		merged = append(merged, term{
			value: v,
			desc:  fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc),
			op:    prev.op,
		})
	}

	// + and -
	res := RollResult{Formula: formula}
	var details []string
	for i, t := range merged {
		if i > 0 {
			details = append(details, t.op)
		} else if t.op == "-" {
			details = append(details, "-")
		}
		details = append(details, t.desc)
		if t.op == "-" {
			res.Total -= t.value
		} else {
			res.Total += t.value
		}
	}
	res.Calculation = strings.Join(details, " ")
	return res, nil
}

func evalToken(tok string, intn Intn) (int, string, error) {
	if m := diceRegex.FindStringSubmatch(tok); m != nil {
		count := 1
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return 0, "", errors.New("invalid dice count")
			}
			count = n
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil || sides < 2 {
			return 0, "", errors.New("invalid dice sides")
		}
		if count > maxDice || sides > maxSides {
			return 0, "", fmt.Errorf("too big, max %d dice and %d sides", maxDice, maxSides)
		}

		sum := 0
		rolls := make([]string, 0, count)
		for i := 0; i < count; i++ {
			r := intn(sides) + 1
			sum += r
			rolls = append(rolls, strconv.Itoa(r))
		}
		return sum, fmt.Sprintf("%s [%s]", tok, strings.Join(rolls, ", ")), nil
	}

	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, "", errors.New("not a number or dice")
	}
	return n, strconv.Itoa(n), nil
}
