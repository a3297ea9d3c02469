package loader

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// reusePrefix - строка вида "reuse NAME" заменяется фрагментом NAME
const reusePrefix = "reuse "

var (
	ErrReuseCycle   = errors.New("reuse cycle")
	ErrReuseUnknown = errors.New("unknown reusable")
)

// reuseRef возвращает имя фрагмента, если строка - ссылка
func reuseRef(s string) (string, bool) {
	if !strings.HasPrefix(s, reusePrefix) {
		return "", false
	}
	name := strings.TrimSpace(s[len(reusePrefix):])
	return name, name != ""
}

// resolver подставляет фрагменты из секции "reusable".
// Фрагменты могут ссылаться друг на друга; циклы - ошибка.
type resolver struct {
	raw      map[string]any
	resolved map[string]any
	visiting map[string]bool
}

// newResolver собирает фрагменты из групп: {"textures": {"grass": {...}}, ...}.
// Имена фрагментов общие для всех групп.
func newResolver(groups map[string]any) (*resolver, error) {
	r := &resolver{
		raw:      make(map[string]any),
		resolved: make(map[string]any),
		visiting: make(map[string]bool),
	}

	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	owner := make(map[string]string)
	for _, g := range names {
		group, ok := groups[g].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("reusable group %q must be an object, got %s", g, jsonKind(groups[g]))
		}
		for name, frag := range group {
			if prev, dup := owner[name]; dup {
				return nil, fmt.Errorf("reusable %q defined in both %q and %q", name, prev, g)
			}
			owner[name] = g
			r.raw[name] = frag
		}
	}
	return r, nil
}

// fragment возвращает полностью раскрытый фрагмент
func (r *resolver) fragment(name string, path []string) (any, error) {
	if v, ok := r.resolved[name]; ok {
		return v, nil
	}
	raw, ok := r.raw[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrReuseUnknown, name)
	}
	if r.visiting[name] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrReuseCycle, strings.Join(path, " -> "), name)
	}

	r.visiting[name] = true
	v, err := r.resolve(raw, append(append([]string(nil), path...), name))
	delete(r.visiting, name)
	if err != nil {
		return nil, err
	}
	r.resolved[name] = v
	return v, nil
}

// resolve обходит значение и подставляет ссылки. Исходное значение не меняется.
func (r *resolver) resolve(v any, path []string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			res, err := r.resolve(sub, path)
			if err != nil {
				return nil, err
			}
			out[k] = res
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			res, err := r.resolve(sub, path)
			if err != nil {
				return nil, err
			}
			out[i] = res
		}
		return out, nil

	case string:
		if name, ok := reuseRef(val); ok {
			return r.fragment(name, path)
		}
	}
	return v, nil
}
