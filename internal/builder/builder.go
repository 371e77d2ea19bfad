package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qobs-build/juce2cmake/internal/builder/gen"
	"github.com/qobs-build/juce2cmake/internal/juce"
	"github.com/qobs-build/juce2cmake/internal/jucer"
	"github.com/qobs-build/juce2cmake/internal/msg"
)

const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

type Options struct {
	// OnError is OnErrorAbort (stop at the first failing unit) or
	// OnErrorContinue (record the failure and carry on).
	OnError string
	// Diff prints what would change instead of writing files.
	Diff bool
	// Stdout receives diff output; os.Stdout if nil.
	Stdout io.Writer
}

// Failure is a descriptor or module directory that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Report summarises one generation run.
type Report struct {
	Outputs    []string // files written, or compared in diff mode
	Changed    []string // diff mode: outputs whose content would change
	Processed  []string // module names or descriptor paths
	Skipped    []string // header-only modules
	Targets    []string // modules that got a library target
	Undeclared []string // modules whose declaration has no dependencies key
	Dangling   []gen.DanglingDependency
	Failures   []Failure
}

// Err joins all recorded failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

type Builder struct {
	cfg     *Config
	basedir string
	opts    Options
}

// NewBuilderInDirectory loads juce2cmake.toml from path (if any). Relative
// paths in the config are resolved against path.
func NewBuilderInDirectory(path string, opts Options) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(path, NewConfigEnv(path))
	if err != nil {
		return nil, err
	}
	return NewBuilder(cfg, path, opts)
}

func NewBuilder(cfg *Config, basedir string, opts Options) (*Builder, error) {
	switch opts.OnError {
	case "":
		opts.OnError = OnErrorAbort
	case OnErrorAbort, OnErrorContinue:
	default:
		return nil, fmt.Errorf("unknown error policy %q", opts.OnError)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Builder{cfg: cfg, basedir: basedir, opts: opts}, nil
}

func (b *Builder) Config() *Config { return b.cfg }

// path resolves a config path against the base directory
func (b *Builder) path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(b.basedir, p)
}

// rel shortens p for messages
func (b *Builder) rel(p string) string {
	if rel, err := filepath.Rel(b.basedir, p); err == nil {
		return filepath.ToSlash(rel)
	}
	return p
}

// fail records err for path when continuing on errors, otherwise returns it.
func (b *Builder) fail(report *Report, path string, err error) error {
	if b.opts.OnError != OnErrorContinue {
		return err
	}
	msg.Error("%v", err)
	report.Failures = append(report.Failures, Failure{Path: path, Err: err})
	return nil
}

// GenerateModules reads every module below modules.dir and writes the
// consolidated CMake file. Nothing is written if a module fails and the
// error policy is abort.
func (b *Builder) GenerateModules() (*Report, error) {
	modulesDir := b.path(b.cfg.Modules.Dir)
	dirs, err := juce.DiscoverModules(modulesDir, b.cfg.Modules.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	g := gen.NewModulesGen(b.path(b.cfg.Modules.Output), gen.ModuleSettings{
		SourcePrefix:  b.cfg.Modules.SourcePrefix,
		RelativeTo:    b.basedir,
		ModulesDir:    modulesDir,
		IncludeDir:    b.cfg.Modules.IncludeDir,
		CxxStandard:   b.cfg.Modules.CxxStandard,
		Definitions:   b.cfg.Modules.Definitions,
		PlatformLinks: b.cfg.Modules.PlatformLinks,
	})

	report := &Report{}
	for _, dir := range dirs {
		m, err := juce.LoadModule(dir)
		if err != nil {
			if err := b.fail(report, dir, fmt.Errorf("module %s: %w", filepath.Base(dir), err)); err != nil {
				return report, err
			}
			continue
		}

		if id := m.ID(); id != m.Name {
			msg.Warn("module %s declares a mismatched ID: %q", m.Name, id)
		}

		if !m.DeclaresDependencies {
			report.Undeclared = append(report.Undeclared, m.Name)
			msg.Warn("module %s declares no dependencies key, assuming it has none", m.Name)
		}

		g.AddModule(m)
		report.Processed = append(report.Processed, m.Name)
		if m.HeaderOnly() {
			report.Skipped = append(report.Skipped, m.Name)
			msg.Warn("module %s has neither %s.cpp nor %s.mm, no library target generated", m.Name, m.Name, m.Name)
			continue
		}
		msg.Step("Reading", "%s (%d dependencies)", m.Name, len(m.Dependencies))
	}

	report.Targets = g.Targets()
	report.Dangling = g.DanglingDependencies()
	for _, d := range report.Dangling {
		msg.Warn("%s", d)
	}

	if err := b.emit(report, g); err != nil {
		return report, err
	}
	return report, nil
}

// GenerateProjects writes a CMakeLists.txt next to every .jucer file below
// projects.root. Files written before a failure are kept.
func (b *Builder) GenerateProjects() (*Report, error) {
	files, err := jucer.Discover(b.path(b.cfg.Projects.Root), b.cfg.Projects.Pattern, b.cfg.Projects.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to find project descriptors: %w", err)
	}
	if len(files) == 0 {
		msg.Warn("no files matching %s below %s", b.cfg.Projects.Pattern, b.cfg.Projects.Root)
	}

	report := &Report{}
	for _, file := range files {
		if err := b.generateProject(report, file); err != nil {
			if err := b.fail(report, file, err); err != nil {
				return report, err
			}
			continue
		}
		report.Processed = append(report.Processed, file)
	}
	return report, nil
}

func (b *Builder) generateProject(report *Report, file string) error {
	doc, err := jucer.ParseDocumentFromFile(file)
	if err != nil {
		return err
	}
	project, err := jucer.ExtractProject(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	kind := project.Type
	if kind == "" {
		kind = "unknown type"
	}
	msg.Step("Reading", "%s (%s, %d sources)", b.rel(file), kind, len(project.Sources))
	return b.emit(report, gen.NewProjectGen(project, file, gen.ProjectSettings{
		Output:      b.cfg.Projects.Output,
		JuceDir:     b.juceDir(file),
		CxxStandard: b.cfg.Projects.CxxStandard,
	}))
}

// juceDir is projects.juce_dir, or else the directory holding the modules
// output, relative to the project's CMakeLists.txt.
func (b *Builder) juceDir(descriptor string) string {
	if b.cfg.Projects.JuceDir != "" {
		return b.cfg.Projects.JuceDir
	}
	rel, err := filepath.Rel(filepath.Dir(descriptor), filepath.Dir(b.path(b.cfg.Modules.Output)))
	if err != nil {
		return gen.DefaultJuceDir
	}
	if rel == "." {
		return "${PROJECT_SOURCE_DIR}/"
	}
	return "${PROJECT_SOURCE_DIR}/" + filepath.ToSlash(rel) + "/"
}

// emit renders g and writes its build file, or diffs it in diff mode.
func (b *Builder) emit(report *Report, g gen.Generator) error {
	out, err := g.Generate()
	if err != nil {
		return err
	}

	path := g.BuildFile()
	if b.opts.Diff {
		current, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if writeDiff(b.opts.Stdout, b.rel(path), string(current), out) {
			report.Changed = append(report.Changed, path)
		}
	} else {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return err
		}
		msg.Step("Writing", "%s", b.rel(path))
	}

	report.Outputs = append(report.Outputs, path)
	return nil
}

// Fetch clones JUCE into the parent directory of modules.dir. An empty
// source uses fetch.source from the config.
func (b *Builder) Fetch(source string) (string, error) {
	if source == "" {
		source = b.cfg.Fetch.Source
	}
	dest := filepath.Dir(b.path(b.cfg.Modules.Dir))
	progress := &msg.IndentWriter{Indent: "    ", W: b.opts.Stdout}
	if err := FetchJUCE(source, dest, progress); err != nil {
		return dest, err
	}
	return dest, nil
}
