package prompt

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadFile 은 최상위가 "키: 문자열" 매핑인 프롬프트 YAML 을 읽는다.
// 값이 매핑이나 시퀀스면 에러다. null 은 빈 문자열이 된다.
func loadFile(fsys fs.FS, filePath string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if len(doc.Content) == 0 {
		return map[string]string{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: top level must be a mapping", filePath)
	}

	fields := make(map[string]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s: field %q must be a string (line %d)", filePath, key.Value, value.Line)
		}
		if value.Tag == "!!null" {
			fields[key.Value] = ""
			continue
		}
		fields[key.Value] = value.Value
	}

	if system := fields["system"]; strings.TrimSpace(system) != "" {
		if err := requireStatic(filePath, system); err != nil {
			return nil, err
		}
	}
	for key, value := range fields {
		if _, err := parseTemplate(value); err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", filePath, key, err)
		}
	}
	return fields, nil
}

// loadDir 는 dir 바로 아래의 *.yml, *.yaml 을 파일 이름(확장자 제외)별로 읽는다.
func loadDir(fsys fs.FS, dir string) (map[string]map[string]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matched, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob prompt dir: %w", err)
		}
		paths = append(paths, matched...)
	}
	slices.Sort(paths)

	prompts := make(map[string]map[string]string, len(paths))
	for _, filePath := range paths {
		name := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
		if _, exists := prompts[name]; exists {
			return nil, fmt.Errorf("duplicate prompt name %q in %s", name, dir)
		}
		fields, err := loadFile(fsys, filePath)
		if err != nil {
			return nil, err
		}
		prompts[name] = fields
	}
	return prompts, nil
}
