// Command ndiffmerge merges 1-32 text files into one of three output
// forms (raw multicolumn, unified diff, ifdef-framed source), and can
// also run as an HTTP server offering the same merge as a web service.
//
// Grounded on teacher's main.go: the defaultEnv/stringVar env-var
// fallback convention, and the webServer/upload() wiring now carried by
// the "serve" subcommand via internal/server.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ndiffmerge/ndiffmerge/internal/bundle"
	"github.com/ndiffmerge/ndiffmerge/internal/core/ifdef"
	"github.com/ndiffmerge/ndiffmerge/internal/mergejob"
)

func defaultEnv(s, def string) string {
	if v, ok := os.LookupEnv(s); ok {
		return v
	}
	return def
}

func envName(fg string) string {
	return strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := envName(fg)
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func intVar(p *int, fg string, defaultValue int, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	def := defaultValue
	if v, ok := os.LookupEnv(ev); ok {
		if n, err := fmt.Sscanf(v, "%d", &def); err != nil || n != 1 {
			def = defaultValue
		}
	}
	flag.IntVar(p, fg, def, usage+". env var: "+ev)
}

type macroEntry struct {
	name    string
	builtin bool
}

// macroFlag is a flag.Value that appends to a shared ordered slice;
// -macro and -builtin both write into it, so the order they're given on
// the command line is the order macroEntries ends up in, matching the
// order files are collected in.
type macroFlag struct {
	entries *[]macroEntry
	builtin bool
}

func (m macroFlag) String() string { return "" }
func (m macroFlag) Set(v string) error {
	*m.entries = append(*m.entries, macroEntry{name: v, builtin: m.builtin})
	return nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServe(os.Args[2:])
		return
	}
	runMerge(os.Args[1:])
}

func runMerge(args []string) {
	fs := flag.NewFlagSet("ndiffmerge", flag.ExitOnError)

	var (
		mode       string
		context    int
		bundlePath string
		outPath    string
		macros     []macroEntry
	)
	fs.StringVar(&mode, "mode", "ifdef", "output mode: raw, unified, or ifdef")
	fs.IntVar(&context, "context", 3, "context lines for unified mode")
	fs.StringVar(&bundlePath, "bundle", "", "a txtar archive supplying additional named input files")
	fs.StringVar(&outPath, "o", "", "output file (default stdout)")
	fs.Var(macroFlag{&macros, false}, "macro", "an expression-style macro name, one per ifdef-mode input file")
	fs.Var(macroFlag{&macros, true}, "builtin", "a -D-style builtin macro name, one per ifdef-mode input file")
	fs.Parse(args)

	inputs, err := collectInputs(bundlePath, fs.Args())
	if err != nil {
		fail(err)
	}

	out, err := render(mode, context, inputs, macros)
	if err != nil {
		fail(err)
	}

	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			fail(fmt.Errorf("opening %s: %w", outPath, err))
		}
		defer f.Close()
		if _, err := f.WriteString(out); err != nil {
			fail(err)
		}
		return
	}
	fmt.Fprint(w, out)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())
	os.Exit(1)
}

// collectInputs loads bundlePath's files (if any) followed by every
// positional argument: a regular file is read directly, a directory is
// walked non-recursively and its regular files collected in sorted
// name order.
func collectInputs(bundlePath string, args []string) ([]mergejob.Input, error) {
	var inputs []mergejob.Input

	if bundlePath != "" {
		data, err := os.ReadFile(bundlePath)
		if err != nil {
			return nil, fmt.Errorf("reading bundle %s: %w", bundlePath, err)
		}
		files, err := bundle.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("unpacking bundle %s: %w", bundlePath, err)
		}
		for _, f := range files {
			inputs = append(inputs, mergejob.Input{Name: f.Name, Data: f.Data})
		}
	}

	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !fi.IsDir() {
			data, err := os.ReadFile(arg)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", arg, err)
			}
			inputs = append(inputs, mergejob.Input{Name: arg, Data: data})
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(arg, name)
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			inputs = append(inputs, mergejob.Input{Name: path, Data: data})
		}
	}

	if len(inputs) < 1 {
		return nil, fmt.Errorf("need at least 1 input file, got %d", len(inputs))
	}
	return inputs, nil
}

func render(mode string, context int, inputs []mergejob.Input, macroFlags []macroEntry) (string, error) {
	result, err := mergejob.Merge(inputs)
	if err != nil {
		return "", err
	}

	switch mode {
	case "raw":
		return mergejob.RenderRaw(result), nil

	case "unified":
		if len(inputs) != 2 {
			return "", fmt.Errorf("unified mode requires exactly 2 input files, got %d", len(inputs))
		}
		return mergejob.RenderUnifiedContext(result,
			mergejob.NowHeader(inputs[0].Name), mergejob.NowHeader(inputs[1].Name), context)

	case "ifdef":
		names := make([]string, len(inputs))
		for i, in := range inputs {
			names[i] = in.Name
		}
		macros, err := resolveMacros(inputs, macroFlags)
		if err != nil {
			return "", err
		}
		return mergejob.RenderIfdef(result, names, macros)

	default:
		return "", fmt.Errorf("unknown mode %q: want raw, unified, or ifdef", mode)
	}
}

func resolveMacros(inputs []mergejob.Input, flags []macroEntry) ([]ifdef.MacroName, error) {
	if len(flags) == 0 {
		macros := make([]ifdef.MacroName, len(inputs))
		for i, in := range inputs {
			macros[i] = mergejob.DefaultMacroName(in.Name)
		}
		return macros, nil
	}
	if len(flags) != len(inputs) {
		return nil, fmt.Errorf("got %d -macro/-builtin flags for %d input files", len(flags), len(inputs))
	}
	macros := make([]ifdef.MacroName, len(flags))
	for i, f := range flags {
		macros[i] = ifdef.MacroName{Name: f.name, Builtin: f.builtin}
	}
	return macros, nil
}
