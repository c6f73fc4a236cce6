// Package utils contains helper functions shared by the depth camera packages
package utils

import (
	"path"
	"sort"
	"strings"
)

// DictToString converts a dictionary to a string so it can be logged in a
// single line. Keys are sorted.
func DictToString(m map[string]string) string {
	stringMapList := make([]string, 0, len(m))
	for k, val := range m {
		stringMapList = append(stringMapList, k+"="+val)
	}
	sort.Strings(stringMapList)
	stringMap := strings.Join(stringMapList, ",")

	return "{" + stringMap + "}"
}

// ResolveTopic places a relative topic name under namespace. Names starting with
// a slash are absolute and returned cleaned.
func ResolveTopic(namespace, name string) string {
	if strings.HasPrefix(name, "/") {
		return path.Clean(name)
	}
	return path.Clean("/" + path.Join(namespace, name))
}
