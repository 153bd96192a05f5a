package main

import (
	"fmt"
	"strings"
)

// overrideList collects repeatable -c key=value flags.
type overrideList []string

func (o *overrideList) String() string {
	return strings.Join(*o, ",")
}

func (o *overrideList) Set(v string) error {
	if key, _, ok := strings.Cut(v, "="); !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("override %q: want key=value", v)
	}
	*o = append(*o, v)
	return nil
}
