package config

import (
	"bufio"
	"bytes"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleywu/winroute/internal/routing/entities"
)

// RouteSpec is one entry of a route file
type RouteSpec struct {
	Destination string  `yaml:"destination" validate:"required,route_destination"`
	Gateway     string  `yaml:"gateway" validate:"omitempty,ip"`
	Interface   *uint32 `yaml:"interface"`
	Metric      *uint32 `yaml:"metric"`
}

// RouteFile is the YAML document read by LoadRouteFile:
//
//	routes:
//	  - destination: 223.6.6.6/32
//	    gateway: 192.168.1.1
//	    metric: 1
type RouteFile struct {
	Routes []RouteSpec `yaml:"routes" validate:"dive"`
}

// Route converts the entry into a route. Family agreement between destination
// and gateway is checked here rather than at submit time.
func (s RouteSpec) Route() (entities.Route, error) {
	route, err := entities.ParseRoute(s.Destination)
	if err != nil {
		return entities.Route{}, err
	}
	if s.Gateway != "" {
		gw, err := netip.ParseAddr(s.Gateway)
		if err != nil {
			return entities.Route{}, fmt.Errorf("invalid gateway %q: %w", s.Gateway, err)
		}
		route = route.WithGateway(gw)
	}
	if s.Interface != nil {
		route = route.WithInterface(*s.Interface)
	}
	if s.Metric != nil {
		route = route.WithMetric(*s.Metric)
	}
	if err := route.Validate(); err != nil {
		return entities.Route{}, err
	}
	return route, nil
}

// LoadRouteFile reads routes from path. Files ending in .yaml or .yml are
// parsed as a RouteFile; anything else as a plain list, one
// "<cidr> [gateway]" per line with # comments.
func LoadRouteFile(path string) ([]entities.Route, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseRouteYAML(data)
	default:
		return ParseRouteList(data)
	}
}

// ParseRouteYAML decodes and validates a RouteFile document
func ParseRouteYAML(data []byte) ([]entities.Route, error) {
	var file RouteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse route file: %w", err)
	}
	if err := validate.Struct(file); err != nil {
		return nil, convertValidatorErrors(err, "")
	}

	routes := make([]entities.Route, 0, len(file.Routes))
	var problems ValidationErrors
	for i, spec := range file.Routes {
		route, err := spec.Route()
		if err != nil {
			problems = append(problems, ValidationError{
				FieldPath: fmt.Sprintf("routes[%d]", i),
				Message:   err.Error(),
			})
			continue
		}
		routes = append(routes, route)
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return routes, nil
}

// ParseRouteList parses the plain list format
func ParseRouteList(data []byte) ([]entities.Route, error) {
	var routes []entities.Route

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) > 2 {
			return nil, fmt.Errorf("invalid route at line %d: %s: too many fields", lineNum, line)
		}
		spec := RouteSpec{Destination: fields[0]}
		if len(fields) == 2 {
			spec.Gateway = fields[1]
		}
		route, err := spec.Route()
		if err != nil {
			return nil, fmt.Errorf("invalid route at line %d: %s: %w", lineNum, line, err)
		}
		routes = append(routes, route)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read route list: %w", err)
	}
	return routes, nil
}
