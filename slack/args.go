package gbmcslack

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	mcpriceUsage  = "/mcprice <S0> <K> <r> <T> <sigma> [paths] [seed]"
	bspriceUsage  = "/bsprice <S0> <K> <r> <T> <sigma>"
	convergeUsage = "/converge <S0> <K> <r> <T> <sigma> [seed]"
)

// commandArgs are the positional arguments shared by the pricing commands.
type commandArgs struct {
	S0, K, R, T, Sigma float64
	Paths              int
	Seed               uint64
	HasSeed            bool
}

// parseArgs reads the five market inputs followed by up to len(optional) named extras,
// each of which is "paths" or "seed".
func parseArgs(text string, optional ...string) (commandArgs, error) {
	fields := strings.Fields(text)
	if len(fields) < 5 || len(fields) > 5+len(optional) {
		return commandArgs{}, fmt.Errorf("expected 5 to %d arguments, got %d", 5+len(optional), len(fields))
	}

	var a commandArgs
	targets := []*float64{&a.S0, &a.K, &a.R, &a.T, &a.Sigma}
	names := []string{"S0", "K", "r", "T", "sigma"}
	for i, dst := range targets {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return commandArgs{}, fmt.Errorf("%s: %q is not a number", names[i], fields[i])
		}
		*dst = v
	}

	for i, field := range fields[5:] {
		switch optional[i] {
		case "paths":
			n, err := strconv.Atoi(field)
			if err != nil || n < 1 {
				return commandArgs{}, fmt.Errorf("paths: %q is not a positive integer", field)
			}
			a.Paths = n
		case "seed":
			s, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return commandArgs{}, fmt.Errorf("seed: %q is not an unsigned integer", field)
			}
			a.Seed = s
			a.HasSeed = true
		}
	}
	return a, nil
}
