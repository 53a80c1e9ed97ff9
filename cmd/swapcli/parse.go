package main

import (
	"encoding/json"
	"strconv"
)

// mustParseInt64 parses a small positional argument (a safety deposit
// amount); a parse failure calls fatal directly, exiting the command.
func mustParseInt64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fatal(err)
	}
	return v
}

// mustParseJSON decodes an arbitrary JSON argument (e.g. a whole signed
// order) into a generic value suitable for re-marshaling into the
// request body.
func mustParseJSON(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		fatal(err)
	}
	return v
}

func mustParseDelaysJSON(s string) interface{} {
	return mustParseJSON(s)
}
