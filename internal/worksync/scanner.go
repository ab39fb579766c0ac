package worksync

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iammorganparry/transmem/internal/models"
)

// WorkFile is one parsed work-context file.
type WorkFile struct {
	Work models.WorkContext
	Path string // absolute path to the YAML file
}

// ScanWorks reads every *.yaml / *.yml file directly inside each of dirs.
// Files that fail to parse are skipped and their paths returned in invalid.
func ScanWorks(dirs []string) (works []WorkFile, invalid []string, err error) {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			// Skip directories that don't exist
			if os.IsNotExist(err) {
				continue
			}
			return nil, nil, fmt.Errorf("read works dir %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !isYAML(entry.Name()) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				invalid = append(invalid, path)
				continue
			}

			w, err := ParseWork(data)
			if err != nil {
				invalid = append(invalid, path)
				continue
			}
			if w.Title == "" {
				// File name is the fallback title
				w.Title = strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			works = append(works, WorkFile{Work: w, Path: abs})
		}
	}

	sort.SliceStable(works, func(i, j int) bool { return works[i].Path < works[j].Path })
	return works, invalid, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// ParseWork decodes a work file, rejecting unknown keys so typos surface.
func ParseWork(data []byte) (models.WorkContext, error) {
	var w models.WorkContext
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&w); err != nil {
		return models.WorkContext{}, fmt.Errorf("parse yaml: %w", err)
	}

	w.Title = strings.TrimSpace(w.Title)
	w.TranslationStyle = strings.TrimSpace(w.TranslationStyle)
	for i := range w.Characters {
		w.Characters[i].Description = strings.TrimSpace(w.Characters[i].Description)
	}
	return w, nil
}
