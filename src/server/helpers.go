package server

import (
	"os"
	"sort"
	"strings"

	"pair-analysis/src/models"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// artifactKind classifies a file name by its run artifact suffix, or "".
func artifactKind(name string) string {
	switch {
	case strings.HasSuffix(name, utils.TableFileSuffix):
		return "table"
	case strings.HasSuffix(name, utils.PlotFileSuffix):
		return "plot"
	case strings.HasSuffix(name, utils.HeatMapFileSuffix):
		return "heat_map"
	}
	return ""
}

// -----------------------------------------------------------------------------

// listArtifacts returns the run artifacts in dir, newest name first. A
// missing dir has no artifacts.
func listArtifacts(dir string) ([]models.MArtifact, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []models.MArtifact{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.MArtifact, 0, len(entries))
	for _, e := range entries {
		kind := artifactKind(e.Name())
		if kind == "" || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, models.MArtifact{
			Name:       e.Name(),
			Kind:       kind,
			Size:       info.Size(),
			ModifiedAt: info.ModTime().UnixMilli(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}
