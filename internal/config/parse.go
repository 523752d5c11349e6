package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"gopkg.in/ini.v1"
)

func parseINI(data []byte) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:         true,
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, err
	}

	cfg := New()
	for _, s := range file.Sections() {
		if s.Name() == ini.DefaultSection && len(s.Keys()) == 0 {
			continue
		}
		if len(s.Keys()) == 0 {
			cfg.touch(s.Name())
			continue
		}
		for _, k := range s.Keys() {
			cfg.Set(s.Name(), k.Name(), k.String())
		}
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	cfg := New()
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch v := doc[name].(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) == 0 {
				cfg.touch(name)
			}
			for _, k := range keys {
				s, err := scalarString(v[k])
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", name, k, err)
				}
				cfg.Set(name, k, s)
			}
		case nil:
			cfg.touch(name)
		default:
			s, err := scalarString(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			cfg.Set(name, name, s)
		}
	}
	return cfg, nil
}

// touch registers an empty section.
func (c *Config) touch(sectionName string) {
	name := normalizeSection(sectionName)
	if _, ok := c.sections[name]; !ok {
		c.sections[name] = &section{values: make(map[string]string)}
	}
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case time.Time:
		return t.Format(time.DateOnly), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
