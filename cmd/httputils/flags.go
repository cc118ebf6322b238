package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kbukum/httputils/resilience"
)

// splitPair splits "name<sep>value", trimming spaces around both halves.
func splitPair(raw, sep string) (name, value string, err error) {
	name, value, ok := strings.Cut(raw, sep)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("expected name%svalue, got %q", sep, raw)
	}
	return name, strings.TrimSpace(value), nil
}

// parseRetryable maps --retry-on to a predicate: "standard", "transport" or
// a comma-separated list of status codes.
func parseRetryable(raw string) (resilience.Retryable, error) {
	switch raw {
	case "", "standard":
		return resilience.RetryStandard(), nil
	case "transport":
		return resilience.RetryOnTransportError(), nil
	}

	var codes []int
	for _, part := range strings.Split(raw, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid --retry-on %q: want standard, transport or status codes", raw)
		}
		codes = append(codes, code)
	}
	return resilience.RetryOnStatus(codes...), nil
}

// parseWait maps --wait to a strategy. step is used by constant and linear;
// zero means the one-second default.
func parseWait(raw string, step time.Duration) (resilience.WaitStrategy, error) {
	if step < 0 {
		return nil, fmt.Errorf("invalid --wait-step %s", step)
	}
	if step == 0 {
		step = resilience.DefaultWait
	}
	switch raw {
	case "none":
		return resilience.WaitNone(), nil
	case "constant":
		return resilience.WaitConstant(step), nil
	case "linear":
		return resilience.WaitLinear(step), nil
	case "", "exponential":
		return resilience.WaitExponential(), nil
	}
	return nil, fmt.Errorf("invalid --wait %q: want none, constant, linear or exponential", raw)
}

// parseHostPort splits "host:port" into its parts.
func parseHostPort(raw string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q", raw)
	}
	return host, port, nil
}
