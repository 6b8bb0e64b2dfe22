// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathmap

// FieldTransform returns a message transform that rewrites, through
// table, every string value stored under one of the named keys,
// anywhere in the message. A named key holding an array of strings has
// each element rewritten. Values under other keys are walked but left
// alone, and non-string values under named keys are walked as usual.
//
// The message is modified in place and returned. With no fields, or an
// empty table, the transform is the identity.
//
// The result is assignable to bridge.Transform.
func FieldTransform(table Table, fields ...string) func(message any) (any, error) {
	names := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		names[field] = struct{}{}
	}
	return func(message any) (any, error) {
		if len(table) == 0 || len(names) == 0 {
			return message, nil
		}
		return rewriteValue(message, table, names), nil
	}
}

func rewriteValue(value any, table Table, names map[string]struct{}) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, element := range typed {
			if _, named := names[key]; named {
				typed[key] = rewriteNamed(element, table, names)
				continue
			}
			typed[key] = rewriteValue(element, table, names)
		}
		return typed
	case []any:
		for index, element := range typed {
			typed[index] = rewriteValue(element, table, names)
		}
		return typed
	default:
		return value
	}
}

// rewriteNamed handles a value found under a path-carrying key.
func rewriteNamed(value any, table Table, names map[string]struct{}) any {
	switch typed := value.(type) {
	case string:
		return table.Rewrite(typed)
	case []any:
		for index, element := range typed {
			if path, ok := element.(string); ok {
				typed[index] = table.Rewrite(path)
				continue
			}
			typed[index] = rewriteValue(element, table, names)
		}
		return typed
	default:
		return rewriteValue(value, table, names)
	}
}
