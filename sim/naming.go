package sim

import (
	"strconv"
	"strings"
)

// NameMustBeValid panics if the name does not follow the naming convention.
// A name is a dot-separated hierarchy such as "TMU.Node[3].SendCW". Every
// element is non-empty, starts with a capital letter, and may carry integer
// indices in square brackets.
func NameMustBeValid(name string) {
	for _, token := range strings.Split(name, ".") {
		if reason := invalidNameToken(token); reason != "" {
			panic("Name " + name + " is not valid: " + reason)
		}
	}
}

func invalidNameToken(token string) string {
	elem, indices, found := strings.Cut(token, "[")

	if elem == "" {
		return "element must not be empty"
	}

	if strings.ContainsAny(elem, "_\"'- ]") {
		return "element contains an invalid character"
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		return "element must start with a capital letter"
	}

	if !found {
		return ""
	}

	for _, part := range strings.Split("["+indices, "[")[1:] {
		if !strings.HasSuffix(part, "]") {
			return "bracket must match"
		}

		if _, err := strconv.Atoi(strings.TrimSuffix(part, "]")); err != nil {
			return "index must be an integer"
		}
	}

	return ""
}

// BuildName joins a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex joins a parent name and an indexed element name.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
