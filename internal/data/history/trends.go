package history

import (
	"fmt"
	"math"
)

// TrendPoint is one build plus its change against the previous build.
type TrendPoint struct {
	Build
	DeltaFiles    int     `json:"deltaFiles"`
	DeltaEdges    int     `json:"deltaEdges"`
	DeltaCycles   int     `json:"deltaCycles"`
	EdgesPerFile  float64 `json:"edgesPerFile"`
	FileGrowthPct float64 `json:"fileGrowthPct"`
}

type TrendReport struct {
	ProjectKey string       `json:"projectKey"`
	BuildCount int          `json:"buildCount"`
	Points     []TrendPoint `json:"points"`
}

// BuildTrendReport derives deltas between consecutive builds, which must be
// ordered oldest first. File growth is measured against the first build.
func BuildTrendReport(projectKey string, builds []Build) (TrendReport, error) {
	if len(builds) == 0 {
		return TrendReport{}, fmt.Errorf("no builds recorded for project %q", normalizeProjectKey(projectKey))
	}

	first := builds[0]
	points := make([]TrendPoint, 0, len(builds))
	for i, current := range builds {
		point := TrendPoint{Build: current}
		if current.TotalFiles > 0 {
			point.EdgesPerFile = round2(float64(current.TotalEdges) / float64(current.TotalFiles))
		}
		if i > 0 {
			prev := builds[i-1]
			point.DeltaFiles = current.TotalFiles - prev.TotalFiles
			point.DeltaEdges = current.TotalEdges - prev.TotalEdges
			point.DeltaCycles = current.CycleCount - prev.CycleCount
			if first.TotalFiles > 0 {
				point.FileGrowthPct = round2(float64(current.TotalFiles-first.TotalFiles) / float64(first.TotalFiles) * 100)
			}
		}
		points = append(points, point)
	}

	return TrendReport{
		ProjectKey: normalizeProjectKey(projectKey),
		BuildCount: len(points),
		Points:     points,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
