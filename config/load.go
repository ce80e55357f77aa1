package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"gopkg.in/yaml.v3"
)

// searchDirs are the candidate locations for a settings file given by bare
// name, in lookup order
var searchDirs = []string{".", "settings", "config", "..", filepath.Join("..", "settings"), filepath.Join("..", "config")}

// fileSchema is the on-disk YAML layout
type fileSchema struct {
	Infile        string    `yaml:"infile"`
	Inpath        string    `yaml:"inpath"`
	Outpath       string    `yaml:"outpath"`
	ColnameLat    string    `yaml:"colname_lat"`
	ColnameLng    string    `yaml:"colname_lng"`
	TargetBBox    yaml.Node `yaml:"target_bbox"`
	TargetRes     float64   `yaml:"target_res"`
	TargetCRS     string    `yaml:"target_crs"`
	DateMin       yaml.Node `yaml:"date_min"`
	DateMax       yaml.Node `yaml:"date_max"`
	TimeIntervals string    `yaml:"time_intervals"`
	TimeBuffer    int       `yaml:"time_buffer"`
	TargetSources yaml.Node `yaml:"target_sources"`
}

// Load returns a Configuration from a settings file.
//   - empty pathOrName: the built-in template.
//   - a path to an existing file: that file.
//   - a bare name: search the candidate directories for <name>.yaml; exactly
//     one match loads it, several load the pick-th (1-indexed, defaulting to
//     the first) and report all candidates, none is a configuration error.
func Load(pathOrName string, pick int) (*Configuration, error) {
	if pathOrName == "" {
		return Template(), nil
	}
	if fileExists(pathOrName) {
		return loadFile(pathOrName)
	}
	if strings.ContainsRune(pathOrName, os.PathSeparator) || hasYamlExt(pathOrName) {
		return nil, service.MakeConfig(fmt.Sprintf("config not found: %s", pathOrName), nil)
	}

	var candidates []string
	for _, dir := range searchDirs {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, pathOrName+ext)
			if fileExists(p) {
				candidates = append(candidates, p)
			}
		}
	}
	switch len(candidates) {
	case 0:
		return nil, service.MakeConfig(fmt.Sprintf("config not found: %s (searched %s)", pathOrName, strings.Join(searchDirs, ", ")), nil)
	case 1:
		return loadFile(candidates[0])
	}
	if pick < 1 {
		pick = 1
	}
	if pick > len(candidates) {
		return nil, service.MakeConfig(fmt.Sprintf("%d configs named %s found (%s), pick must be between 1 and %d", len(candidates), pathOrName, strings.Join(candidates, ", "), len(candidates)), nil)
	}
	log.Logger(context.Background()).Sugar().Infof("%d configs named %s found: %s; loading %s", len(candidates), pathOrName, strings.Join(candidates, ", "), candidates[pick-1])
	return loadFile(candidates[pick-1])
}

func loadFile(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, service.MakeConfig("read config "+path, err)
	}
	return Parse(data)
}

// Parse decodes YAML settings into a Configuration
func Parse(data []byte) (*Configuration, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, service.MakeConfig("parse config", err)
	}

	c := Template()
	c.InputFile = fs.Infile
	c.InputPath = fs.Inpath
	if fs.Outpath != "" {
		c.OutputPath = fs.Outpath
	}
	if fs.ColnameLat != "" {
		c.LatColumn = fs.ColnameLat
	}
	if fs.ColnameLng != "" {
		c.LngColumn = fs.ColnameLng
	}
	if fs.TargetRes != 0 {
		c.Resolution = fs.TargetRes
	}
	if fs.TargetCRS != "" {
		c.CRS = fs.TargetCRS
	}
	if fs.TimeIntervals != "" {
		c.AggregationInterval = fs.TimeIntervals
	}
	c.TimeBuffer = fs.TimeBuffer

	// target_bbox is either a 4-element list or empty/absent (sentinel)
	if fs.TargetBBox.Kind == yaml.SequenceNode {
		var vals []float64
		if err := fs.TargetBBox.Decode(&vals); err != nil {
			return nil, service.MakeConfig("target_bbox", err)
		}
		c.SetBoundingBox(vals...)
	}

	// dates may be bare years or full dates
	dr, err := common.ParseDateRange(scalarValue(fs.DateMin), scalarValue(fs.DateMax))
	if err != nil {
		return nil, service.MakeConfig("dates", err)
	}
	c.Dates = dr

	if fs.TargetSources.Kind == yaml.MappingNode {
		if err := parseSources(c, &fs.TargetSources); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func scalarValue(n yaml.Node) string {
	if n.Kind == yaml.ScalarNode && n.Tag != "!!null" {
		return n.Value
	}
	return ""
}

// parseSources decodes the polymorphic target_sources mapping: a bare list
// of layers, a layer to summary-function (or SLGA depth list) mapping, or a
// nested collect/preprocess/download block for RemoteImage.
func parseSources(c *Configuration, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		source := common.SourceID(key.Value)
		if !common.KnownSource(source) {
			return service.MakeConfig(fmt.Sprintf("unknown source %q in target_sources", key.Value), nil)
		}

		if source == common.SourceRemoteImage {
			ric := &RemoteImageConfig{}
			if err := val.Decode(ric); err != nil {
				return service.MakeConfig("target_sources.RemoteImage", err)
			}
			c.RemoteImage = ric
			c.Sources[source] = SourceConfig{}
			continue
		}

		sc := SourceConfig{}
		if source == common.SourceSLGA {
			// the original harvester always requests confidence intervals
			sc.ConfidenceInterval = true
		}
		switch val.Kind {
		case yaml.ScalarNode:
			sc.Layers = []string{val.Value}
		case yaml.SequenceNode:
			if err := val.Decode(&sc.Layers); err != nil {
				return service.MakeConfig("target_sources."+key.Value, err)
			}
		case yaml.MappingNode:
			if err := parseLayerMapping(&sc, val); err != nil {
				return service.MakeConfig("target_sources."+key.Value, err)
			}
		}
		c.Sources[source] = sc
	}
	return nil
}

// option keys accepted inside a per-source mapping, alongside layer names
var sourceOptionKeys = map[string]bool{
	"format_out": true, "confidence_interval": true, "depth_min": true, "depth_max": true,
}

func parseLayerMapping(sc *SourceConfig, node *yaml.Node) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if sourceOptionKeys[key.Value] {
			if err := decodeOption(sc, key.Value, val); err != nil {
				return err
			}
			continue
		}
		sc.Layers = append(sc.Layers, key.Value)
		switch val.Kind {
		case yaml.ScalarNode:
			sc.SummaryFunctions = append(sc.SummaryFunctions, val.Value)
		case yaml.SequenceNode:
			var items []string
			if err := val.Decode(&items); err != nil {
				return err
			}
			if len(items) > 0 && strings.HasSuffix(items[0], "cm") {
				// SLGA style: the list selects depth intervals
				min, max, err := depthBounds(items)
				if err != nil {
					return err
				}
				sc.DepthMin, sc.DepthMax = min, max
				sc.SummaryFunctions = append(sc.SummaryFunctions, "")
			} else if len(items) > 0 {
				sc.SummaryFunctions = append(sc.SummaryFunctions, items[0])
			} else {
				sc.SummaryFunctions = append(sc.SummaryFunctions, "")
			}
		default:
			sc.SummaryFunctions = append(sc.SummaryFunctions, "")
		}
	}
	return nil
}

func decodeOption(sc *SourceConfig, key string, val *yaml.Node) error {
	switch key {
	case "format_out":
		return val.Decode(&sc.FormatOut)
	case "confidence_interval":
		return val.Decode(&sc.ConfidenceInterval)
	case "depth_min":
		return val.Decode(&sc.DepthMin)
	case "depth_max":
		return val.Decode(&sc.DepthMax)
	}
	return nil
}

// depthBounds converts depth interval identifiers such as "0-5cm" into the
// overall min and max depth in cm
func depthBounds(ids []string) (int, int, error) {
	min, max := -1, -1
	for _, id := range ids {
		parts := strings.SplitN(strings.TrimSuffix(id, "cm"), "-", 2)
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("invalid depth identifier %q (expected e.g. 0-5cm)", id)
		}
		lo, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid depth identifier %q: %w", id, err)
		}
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid depth identifier %q: %w", id, err)
		}
		if min == -1 || lo < min {
			min = lo
		}
		if hi > max {
			max = hi
		}
	}
	return min, max, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func hasYamlExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
