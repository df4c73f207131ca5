package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/petrode/internal/engine"
)

// WriteFile writes sol to path in the format named by its extension: .csv,
// .json, or .svg (plotting every place).
func WriteFile(path string, sol *engine.Solution, meta Meta) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".json" && ext != ".svg" {
		return fmt.Errorf("export: unsupported format %q", ext)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch ext {
	case ".csv":
		err = WriteCSV(file, sol)
	case ".json":
		err = WriteJSON(file, sol, meta)
	default:
		var svg string
		svg, err = SeriesSVG(sol, sol.Net().PlaceIDs(), 800, 400)
		if err == nil {
			_, err = file.WriteString(svg)
		}
	}
	if err != nil {
		return err
	}
	return file.Close()
}
