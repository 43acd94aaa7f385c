package dnsgraph

import (
	"github.com/dnsgraph/dnsgraph/dnssec"
	"github.com/dnsgraph/dnsgraph/render"
)

var (
	// SkipQueryTypes lists the record types that are never graphed as
	// top-level queries. Their records are still consumed internally when
	// signature and delegation edges are built; graphing them again as
	// queries would only duplicate that structure.
	SkipQueryTypes = DefaultSkipQueryTypes()
)

//---

type Logger func(string)

// Default logging functions just black-hole the input.

var Debug Logger = func(s string) {}
var Info Logger = func(s string) {}
var Warn Logger = func(s string) {}

//---

func init() {
	dnssec.Info = func(s string) {
		Info(s)
	}
	dnssec.Warn = func(s string) {
		Warn(s)
	}
	dnssec.Debug = func(s string) {
		Debug(s)
	}
	render.Warn = func(s string) {
		Warn(s)
	}
	render.Debug = func(s string) {
		Debug(s)
	}
}
