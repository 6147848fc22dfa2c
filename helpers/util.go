package helpers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var unitsReplacer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "", "'", "")

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// CleanText collapses runs of whitespace (including non-breaking spaces) into single spaces
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseUnits parses a sales figure such as "1,234" or "12 345" into a non-negative integer
func ParseUnits(s string) (int64, error) {
	cleaned := unitsReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid units %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative units %q", s)
	}
	return n, nil
}
