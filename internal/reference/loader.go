// Package reference loads the static subject catalog, syllabus and
// recommended-sources tables the planner schedules from.
package reference

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches reference data from the filesystem.
//
// Files are recognised by suffix: *.catalog.yaml, *.syllabus.yaml and
// *.sources.yaml. Other files are ignored. Files are read in lexical path
// order so the resulting tables are deterministic.
type Loader struct {
	rootDir string
	data    Data
	mu      sync.RWMutex
}

// NewLoader creates a new reference loader, loads all content and
// validates it.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{rootDir: rootDir}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading reference data: %w", err)
	}
	if err := Validate(l.data); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}

	slog.Info("reference data loaded",
		"catalog_rows", len(l.data.Catalog),
		"syllabus_topics", len(l.data.Syllabus),
		"sources", len(l.data.Sources),
	)
	return l, nil
}

// Data returns a copy of the loaded tables.
func (l *Loader) Data() Data {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Data{
		Catalog:  append([]CatalogEntry(nil), l.data.Catalog...),
		Syllabus: append([]SyllabusEntry(nil), l.data.Syllabus...),
		Sources:  append([]Source(nil), l.data.Sources...),
	}
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		switch {
		case hasSuffix(path, ".catalog"):
			return l.loadCatalog(path)
		case hasSuffix(path, ".syllabus"):
			return l.loadSyllabus(path)
		case hasSuffix(path, ".sources"):
			return l.loadSources(path)
		}
		return nil
	})
}

func hasSuffix(path, kind string) bool {
	return strings.HasSuffix(path, kind+".yaml") || strings.HasSuffix(path, kind+".yml")
}

func (l *Loader) loadCatalog(path string) error {
	var f catalogFile
	if err := readYAML(path, &f); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range f.Subjects {
		e.MainSubject = Key(e.MainSubject)
		e.SubSubject = strings.TrimSpace(e.SubSubject)
		l.data.Catalog = append(l.data.Catalog, e)
	}
	return nil
}

func (l *Loader) loadSyllabus(path string) error {
	var f syllabusFile
	if err := readYAML(path, &f); err != nil {
		return err
	}
	if f.MainSubject == "" {
		slog.Warn("skipping syllabus file without main_subject", "path", path)
		return nil
	}

	main := Key(f.MainSubject)
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sub := range f.SubSubjects {
		for _, topic := range sub.Topics {
			l.data.Syllabus = append(l.data.Syllabus, SyllabusEntry{
				MainSubject: main,
				SubSubject:  strings.TrimSpace(sub.Name),
				Topic:       strings.TrimSpace(topic.Name),
				Subtopics:   append([]string(nil), topic.Subtopics...),
			})
		}
	}
	return nil
}

func (l *Loader) loadSources(path string) error {
	var f sourcesFile
	if err := readYAML(path, &f); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range f.Sources {
		s.MainSubject = Key(s.MainSubject)
		s.SubSubject = strings.TrimSpace(s.SubSubject)
		l.data.Sources = append(l.data.Sources, s)
	}
	return nil
}

// readYAML decodes a file strictly. A malformed reference file is a
// startup contract violation, not something to skip.
func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate reports shape violations in the reference tables. All problems
// are joined into a single error.
func Validate(d Data) error {
	var errs []error
	for i, e := range d.Catalog {
		switch {
		case e.MainSubject == "":
			errs = append(errs, fmt.Errorf("catalog[%d]: main_subject is required", i))
		case e.SubSubject == "":
			errs = append(errs, fmt.Errorf("catalog[%d] %s: sub_subject is required", i, e.MainSubject))
		}
		if e.HoursPerSubtopic < 0 || e.MaxHours < 0 || e.SubtopicCount < 0 {
			errs = append(errs, fmt.Errorf("catalog[%d] %s/%s: hours and counts must be non-negative", i, e.MainSubject, e.SubSubject))
		}
		if e.Pace.FullTime < 0 || e.Pace.PartTime < 0 || e.Pace.WorkingProfessional < 0 {
			errs = append(errs, fmt.Errorf("catalog[%d] %s/%s: pace must be non-negative", i, e.MainSubject, e.SubSubject))
		}
	}
	for i, e := range d.Syllabus {
		if e.MainSubject == "" || e.SubSubject == "" || e.Topic == "" {
			errs = append(errs, fmt.Errorf("syllabus[%d]: main subject, sub-subject and topic are required", i))
		}
	}
	for i, s := range d.Sources {
		if s.MainSubject == "" || s.Text == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: main_subject and text are required", i))
		}
	}
	return errors.Join(errs...)
}
