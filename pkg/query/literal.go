package query

import (
	"errors"
	"strings"
)

var errMalformedLiteral = errors.New("malformed string literal")

// parseLiteral decodes a quoted OData string literal, in which a doubled
// quote stands for one quote. Values without quotes are returned unchanged.
func parseLiteral(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "'") {
		return s, nil
	}
	v, rest, err := scanLiteral(s)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rest) != "" {
		return "", errMalformedLiteral
	}
	return v, nil
}

// scanLiteral reads one quoted literal from the front of s and returns the
// decoded value and the remaining input.
func scanLiteral(s string) (value, rest string, err error) {
	if !strings.HasPrefix(s, "'") {
		return "", "", errMalformedLiteral
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		return b.String(), s[i+1:], nil
	}
	return "", "", errMalformedLiteral
}

// parseLiteralList decodes a comma-separated list of quoted literals.
func parseLiteralList(s string) ([]string, error) {
	var out []string
	rest := strings.TrimSpace(s)
	for {
		v, r, err := scanLiteral(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		r = strings.TrimSpace(r)
		if r == "" {
			return out, nil
		}
		if !strings.HasPrefix(r, ",") {
			return nil, errMalformedLiteral
		}
		rest = strings.TrimSpace(r[1:])
	}
}

// quote encodes s as an OData string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ParseEntityKey parses a package key segment such as
// "Id='Foo',Version='1.0.0'". Property names are case-insensitive.
func ParseEntityKey(s string) (id, version string, err error) {
	rest := strings.TrimSpace(s)
	for rest != "" {
		name, after, ok := strings.Cut(rest, "=")
		if !ok {
			return "", "", errors.New("malformed entity key")
		}
		v, r, err := scanLiteral(strings.TrimSpace(after))
		if err != nil {
			return "", "", err
		}
		switch {
		case strings.EqualFold(strings.TrimSpace(name), "Id"):
			id = v
		case strings.EqualFold(strings.TrimSpace(name), "Version"):
			version = v
		default:
			return "", "", errors.New("unknown key property " + strings.TrimSpace(name))
		}
		r = strings.TrimSpace(r)
		if r != "" && !strings.HasPrefix(r, ",") {
			return "", "", errors.New("malformed entity key")
		}
		rest = strings.TrimSpace(strings.TrimPrefix(r, ","))
	}
	if id == "" || version == "" {
		return "", "", errors.New("entity key requires Id and Version")
	}
	return id, version, nil
}

// FormatEntityKey renders the key segment of a package entity.
func FormatEntityKey(id, version string) string {
	return "Id=" + quote(id) + ",Version=" + quote(version)
}
