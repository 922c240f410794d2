package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DashboardPath is where navigation lands after the last topic of a module.
const DashboardPath = "/dashboard"

const introSuffix = "-intro"

var modulePathPattern = regexp.MustCompile(`/module/(\d+)`)

// Topic is a single lesson inside a module.
type Topic struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// IsIntro reports whether the topic is a symbolic intro topic.
func (t Topic) IsIntro() bool {
	return strings.HasSuffix(t.ID, introSuffix)
}

// Module is a numbered group of topics.
type Module struct {
	ID     int     `yaml:"id" json:"id"`
	Title  string  `yaml:"title" json:"title"`
	Path   string  `yaml:"path" json:"path"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// HasIntro reports whether the module opens with an intro topic.
func (m Module) HasIntro() bool {
	return len(m.Topics) > 0 && m.Topics[0].IsIntro()
}

// Catalog is an immutable set of modules. Accessors return copies.
type Catalog struct {
	modules []Module
	byID    map[int]int
}

type catalogFile struct {
	Modules []Module `yaml:"modules"`
}

// Default returns the built-in course catalog.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Load(f)
}

// Load decodes a YAML catalog and validates module and topic ids.
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return New(file.Modules)
}

// New builds a catalog from modules. Missing paths default to /module/{id}.
func New(modules []Module) (*Catalog, error) {
	c := &Catalog{
		modules: make([]Module, 0, len(modules)),
		byID:    make(map[int]int, len(modules)),
	}
	for _, m := range modules {
		if m.ID <= 0 {
			return nil, fmt.Errorf("%w: module id %d must be positive", ErrInvalidCatalog, m.ID)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate module id %d", ErrInvalidCatalog, m.ID)
		}
		seen := make(map[string]bool, len(m.Topics))
		for i, t := range m.Topics {
			if t.ID == "" || seen[t.ID] {
				return nil, fmt.Errorf("%w: module %d topic %d has a missing or repeated id", ErrInvalidCatalog, m.ID, i)
			}
			seen[t.ID] = true
		}
		if m.Path == "" {
			m.Path = fmt.Sprintf("/module/%d", m.ID)
		}
		m.Topics = append([]Topic(nil), m.Topics...)
		c.byID[m.ID] = len(c.modules)
		c.modules = append(c.modules, m)
	}
	return c, nil
}

// Modules returns every module in catalog order.
func (c *Catalog) Modules() []Module {
	out := make([]Module, len(c.modules))
	for i, m := range c.modules {
		m.Topics = append([]Topic(nil), m.Topics...)
		out[i] = m
	}
	return out
}

// Module looks up a module by id.
func (c *Catalog) Module(id int) (Module, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Module{}, fmt.Errorf("%w: %d", ErrModuleNotFound, id)
	}
	m := c.modules[idx]
	m.Topics = append([]Topic(nil), m.Topics...)
	return m, nil
}

// ResolveTopicIndex maps a URL topic identifier to a position in the module's
// topic list. The identifier is either a topic id such as "m1-intro" or
// "m3-t4", or a 1-based number. Numbers skip a leading intro topic, so in a
// module that opens with an intro, "1" is the topic at index 1.
func (c *Catalog) ResolveTopicIndex(moduleID int, identifier string) (int, error) {
	idx, ok := c.byID[moduleID]
	if !ok {
		return -1, fmt.Errorf("%w: %d", ErrModuleNotFound, moduleID)
	}
	m := c.modules[idx]

	for i, t := range m.Topics {
		if t.ID == identifier {
			return i, nil
		}
	}

	n, err := strconv.Atoi(identifier)
	if err != nil || n < 1 {
		return -1, fmt.Errorf("%w: %q in module %d", ErrTopicNotFound, identifier, moduleID)
	}
	index := n - 1
	if m.HasIntro() {
		index = n
	}
	if index >= len(m.Topics) {
		return -1, fmt.Errorf("%w: %q in module %d", ErrTopicNotFound, identifier, moduleID)
	}
	return index, nil
}

// TopicPath builds the URL for the topic at index. Intro topics are addressed
// by id, the rest by their effective number.
func (c *Catalog) TopicPath(moduleID, index int) (string, error) {
	m, err := c.Module(moduleID)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(m.Topics) {
		return "", fmt.Errorf("%w: index %d in module %d", ErrTopicNotFound, index, moduleID)
	}
	topic := m.Topics[index]
	if topic.IsIntro() {
		return fmt.Sprintf("/module/%d/topic/%s", moduleID, topic.ID), nil
	}
	number := index + 1
	if m.HasIntro() {
		number = index
	}
	return fmt.Sprintf("/module/%d/topic/%d", moduleID, number), nil
}

// Navigation holds the neighbors of a topic.
type Navigation struct {
	Module   int    `json:"module"`
	Index    int    `json:"index"`
	Topic    Topic  `json:"topic"`
	Path     string `json:"path"`
	PrevPath string `json:"prev_path"`
	NextPath string `json:"next_path"`
	HasPrev  bool   `json:"has_prev"`
	HasNext  bool   `json:"has_next"`
}

// Neighbors returns the previous and next navigation targets for a topic.
// Before the first topic lies the module page, after the last the dashboard.
func (c *Catalog) Neighbors(moduleID, index int) (Navigation, error) {
	m, err := c.Module(moduleID)
	if err != nil {
		return Navigation{}, err
	}
	path, err := c.TopicPath(moduleID, index)
	if err != nil {
		return Navigation{}, err
	}

	nav := Navigation{
		Module:   moduleID,
		Index:    index,
		Topic:    m.Topics[index],
		Path:     path,
		PrevPath: m.Path,
		NextPath: DashboardPath,
	}
	if index > 0 {
		nav.HasPrev = true
		nav.PrevPath, _ = c.TopicPath(moduleID, index-1)
	}
	if index < len(m.Topics)-1 {
		nav.HasNext = true
		nav.NextPath, _ = c.TopicPath(moduleID, index+1)
	}
	return nav, nil
}

// ModuleIDFromPath extracts the module id from a path like /module/3/topic/2.
func ModuleIDFromPath(path string) (int, bool) {
	match := modulePathPattern.FindStringSubmatch(path)
	if match == nil {
		return 0, false
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
