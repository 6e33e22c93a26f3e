package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"flag"
	"github.com/google/subcommands"

	"github.com/skn123/robin"
	"github.com/skn123/robin/internal/robin/lowlevel"
)

// demoCmd admits the in-process sample library and dispatches a few calls
// through the full resolution pipeline, printing what each resolved to.
type demoCmd struct {
	trace bool
}

// Name implements subcommands.Command.
func (*demoCmd) Name() string { return "demo" }

// Synopsis implements subcommands.Command.
func (*demoCmd) Synopsis() string { return "register a sample library and dispatch calls through it" }

// Usage implements subcommands.Command.
func (*demoCmd) Usage() string {
	return `Usage: robin demo [-trace]

Registers the built-in sample library and calls a handful of overloaded
functions, printing each call and its result (or error).
`
}

// SetFlags implements subcommands.Command.
func (c *demoCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.trace, "trace", false, "emit the HTML-comment conversion trace")
}

// Execute implements subcommands.Command.
func (c *demoCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if c.trace {
		robin.EnableTrace()
	}

	eng := robin.CreateEngine()
	if err := eng.RegisterLibrary("sample", sampleEntry(eng)); err != nil {
		fmt.Printf("registration failed: %v\n", err)
		return subcommands.ExitFailure
	}

	show := func(expr string, result any, err error) {
		if err != nil {
			fmt.Printf("%-32s !! %v\n", expr, err)
			return
		}
		fmt.Printf("%-32s => %v\n", expr, result)
	}

	r, err := eng.CallFunction("add", 2, 3)
	show("add(2, 3)", r, err)
	r, err = eng.CallFunction("add", 2.5, 3.25)
	show("add(2.5, 3.25)", r, err)
	r, err = eng.CallFunction("add", int64(10_000_000_000), 1)
	show("add(10_000_000_000, 1)", r, err)
	r, err = eng.CallFunction("greet", "robin")
	show(`greet("robin")`, r, err)

	color, err := eng.Enum("Color", "GREEN")
	if err == nil {
		r, err = eng.CallFunction("describe", color)
	}
	show("describe(Color.GREEN)", r, err)

	p, err := eng.CreateInstance("Point", 3.0, 4.0)
	if err != nil {
		show("Point(3, 4)", nil, err)
		return subcommands.ExitFailure
	}
	show("Point(3, 4)", p, nil)
	r, err = eng.CallMethod(p, "norm")
	show("p.norm()", r, err)
	r, err = eng.CallMethod(p, "scale", 2.0)
	show("p.scale(2.0)", r, err)
	r, err = eng.CallMethod(p, "norm")
	show("p.norm() after scale", r, err)

	// An overload set resolved through an up-cast: length takes *Point,
	// the instance is a Pixel (which extends Point).
	px, err := eng.CreateInstance("Pixel", 6.0, 8.0)
	if err == nil {
		r, err = eng.CallFunction("length", px)
	}
	show("length(pixel)", r, err)

	return subcommands.ExitSuccess
}

// The "native" side of the sample library: a Point class held in a fake
// address space, plus a few free functions. Everything below is what a
// real .so would implement in C++.
type samplePoint struct {
	x, y float64
}

var (
	sampleMu    sync.Mutex
	sampleAddrs = map[uintptr]*samplePoint{}
	sampleNext  uintptr = 0x1000
)

func newSamplePoint(x, y float64) uintptr {
	sampleMu.Lock()
	defer sampleMu.Unlock()
	addr := sampleNext
	sampleNext += 16
	sampleAddrs[addr] = &samplePoint{x: x, y: y}
	return addr
}

func samplePointAt(addr uintptr) *samplePoint {
	sampleMu.Lock()
	defer sampleMu.Unlock()
	return sampleAddrs[addr]
}

// sampleEntry builds the library's registration table. Strings cross the
// word boundary through the front-end's handle table, doubles as IEEE
// bit patterns, instances as fake addresses.
func sampleEntry(eng robin.Engine) []robin.RegData {
	fe := eng.Frontend()

	str := func(w lowlevel.Word) string {
		v, _ := fe.FromWord(w)
		s, _ := v.(string)
		return s
	}

	return []robin.RegData{
		{Name: "Color", Type: "enum", Prototype: []robin.RegData{
			{Name: "RED", Sym: 0},
			{Name: "GREEN", Sym: 1},
			{Name: "BLUE", Sym: 2},
		}},
		{Name: "add", Type: "int", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			return lowlevel.Word(int64(a[0]) + int64(a[1])), nil
		}), Prototype: []robin.RegData{
			{Name: "a", Type: "int"}, {Name: "b", Type: "int"},
		}},
		{Name: "add", Type: "double", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			s := math.Float64frombits(a[0]) + math.Float64frombits(a[1])
			return math.Float64bits(s), nil
		}), Prototype: []robin.RegData{
			{Name: "a", Type: "double"}, {Name: "b", Type: "double"},
		}},
		{Name: "add", Type: "long long", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			return lowlevel.Word(int64(a[0]) + int64(a[1])), nil
		}), Prototype: []robin.RegData{
			{Name: "a", Type: "long long"}, {Name: "b", Type: "long long"},
		}},
		{Name: "greet", Type: "*char", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			return fe.ToWord("hello, " + str(a[0])), nil
		}), Prototype: []robin.RegData{
			{Name: "who", Type: "*char"},
		}},
		{Name: "describe", Type: "*char", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			names := []string{"red", "green", "blue"}
			i := int(int64(a[0]))
			if i < 0 || i >= len(names) {
				return 0, fmt.Errorf("no such color %d", i)
			}
			return fe.ToWord(names[i]), nil
		}), Prototype: []robin.RegData{
			{Name: "c", Type: "#Color"},
		}},
		{Name: "Point", Type: "class", Prototype: []robin.RegData{
			{Name: "Point", Type: "constructor", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
				return lowlevel.Word(newSamplePoint(math.Float64frombits(a[0]), math.Float64frombits(a[1]))), nil
			}), Prototype: []robin.RegData{
				{Name: "x", Type: "double"}, {Name: "y", Type: "double"},
			}},
			{Name: "~Point", Type: "destructor", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
				sampleMu.Lock()
				delete(sampleAddrs, uintptr(a[0]))
				sampleMu.Unlock()
				return 0, nil
			})},
			{Name: "norm", Type: "double", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
				p := samplePointAt(uintptr(a[0]))
				return math.Float64bits(math.Hypot(p.x, p.y)), nil
			})},
			{Name: "scale", Type: "void", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
				p := samplePointAt(uintptr(a[0]))
				f := math.Float64frombits(a[1])
				p.x *= f
				p.y *= f
				return 0, nil
			}), Prototype: []robin.RegData{
				{Name: "factor", Type: "double"},
			}},
		}},
		{Name: "Pixel", Type: "class", Prototype: []robin.RegData{
			{Name: "Point", Type: "extends", Sym: func(p uintptr) uintptr { return p }},
			{Name: "Pixel", Type: "constructor", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
				return lowlevel.Word(newSamplePoint(math.Float64frombits(a[0]), math.Float64frombits(a[1]))), nil
			}), Prototype: []robin.RegData{
				{Name: "x", Type: "double"}, {Name: "y", Type: "double"},
			}},
		}},
		{Name: "length", Type: "double", Sym: lowlevel.Symbol(func(a []lowlevel.Word) (lowlevel.Word, error) {
			p := samplePointAt(uintptr(a[0]))
			return math.Float64bits(math.Hypot(p.x, p.y)), nil
		}), Prototype: []robin.RegData{
			{Name: "p", Type: "*Point"},
		}},
	}
}
